package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"payment-service/internal/domain"
	infstripe "payment-service/internal/infra/stripe"
	"payment-service/internal/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  *services.CheckoutService
	verifier infstripe.VerifierInterface
}

func NewHandler(s *services.CheckoutService, v infstripe.VerifierInterface) *Handler {
	return &Handler{service: s, verifier: v}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/payment/checkout", h.CreateCheckoutSession)
	r.GET("/payment/success", h.PaymentSuccess)
	r.GET("/payment/cancel", h.PaymentCancel)
	r.POST("/payment/webhook", h.StripeWebhook)
}

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	if !isFormRequest(c.ContentType()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userID, err := strconv.ParseUint(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid user"})
		return
	}

	productIDs := c.PostFormArray("products")
	quantities := c.PostFormArray("quantities")

	url, err := h.service.BeginCheckout(c.Request.Context(), userID, productIDs, quantities)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, url)
}

func (h *Handler) PaymentSuccess(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	order, err := h.service.FulfillFromSession(c.Request.Context(), sessionID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, orderToResponse(order))
}

func (h *Handler) PaymentCancel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	event, err := h.verifier.VerifyAndParse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		// unverified payloads never reach fulfillment
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.HandleWebhookEvent(c.Request.Context(), event); err != nil {
		h.renderError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPayload), errors.Is(err, domain.ErrSignatureMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProviderUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.Printf("unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func isFormRequest(contentType string) bool {
	return strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data")
}

func orderToResponse(order *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:         order.ID,
		Paid:       order.Paid,
		TotalCents: order.TotalCents(),
	}
	for _, it := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:  it.ProductID,
			PriceCents: it.PriceCents,
			Quantity:   it.Quantity,
		})
	}
	return resp
}
