package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"payment-service/internal/domain"
	infstripe "payment-service/internal/infra/stripe"
	"payment-service/internal/mocks"
	"payment-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type handlerMocks struct {
	orders    *mocks.MockOrderRepository
	products  *mocks.MockProductRepository
	gateway   *mocks.MockGateway
	verifier  *mocks.MockVerifier
	publisher *mocks.MockPublisher
}

func newTestRouter(t *testing.T) (*gin.Engine, handlerMocks) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := handlerMocks{
		orders:    new(mocks.MockOrderRepository),
		products:  new(mocks.MockProductRepository),
		gateway:   new(mocks.MockGateway),
		verifier:  new(mocks.MockVerifier),
		publisher: new(mocks.MockPublisher),
	}

	service := services.NewCheckoutService(m.orders, m.products, m.gateway, m.publisher)
	handler := NewHandler(service, m.verifier)

	r := gin.New()
	handler.RegisterRoutes(r)
	return r, m
}

func postForm(r *gin.Engine, target string, form url.Values, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateCheckoutSession(t *testing.T) {
	t.Run("redirects to the provider URL", func(t *testing.T) {
		r, m := newTestRouter(t)

		m.products.On("FindByID", mock.Anything, uint64(1)).Return(&domain.Product{ID: 1, Name: "Product A", PriceCents: 1000}, nil)
		m.orders.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Order).ID = 42
		})
		m.gateway.On("CreateCheckoutSession", mock.Anything, uint64(42), mock.Anything).
			Return(&infstripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/pay/cs_1"}, nil)

		w := postForm(r, "/payment/checkout", url.Values{
			"products":   {"1"},
			"quantities": {"2"},
		}, "7")

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "https://checkout.stripe.com/pay/cs_1", w.Header().Get("Location"))
	})

	t.Run("non-form request is rejected", func(t *testing.T) {
		r, m := newTestRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/payment/checkout", strings.NewReader(`{"products":[1]}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", "7")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		m.orders.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything)
	})

	t.Run("missing user is unauthorized", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := postForm(r, "/payment/checkout", url.Values{
			"products":   {"1"},
			"quantities": {"1"},
		}, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad quantity is a 400 with no order persisted", func(t *testing.T) {
		r, m := newTestRouter(t)

		w := postForm(r, "/payment/checkout", url.Values{
			"products":   {"1"},
			"quantities": {"abc"},
		}, "7")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		m.orders.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything)
	})
}

func TestPaymentSuccess(t *testing.T) {
	t.Run("missing session_id redirects home", func(t *testing.T) {
		r, _ := newTestRouter(t)

		req := httptest.NewRequest(http.MethodGet, "/payment/success", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("already paid order still renders success", func(t *testing.T) {
		r, m := newTestRouter(t)

		paid := &domain.Order{ID: 42, UserID: 7, Paid: true, Items: []domain.OrderItem{
			{OrderID: 42, ProductID: 1, PriceCents: 1000, Quantity: 2},
		}}
		m.gateway.On("GetCheckoutSession", mock.Anything, "cs_1").Return(&domain.CheckoutCompleted{
			OrderID: 42, TransactionID: "pi_123", AmountCents: 2000,
		}, nil)
		m.orders.On("FindByID", mock.Anything, uint64(42)).Return(paid, nil)
		m.orders.On("MarkPaid", mock.Anything, uint64(42), "pi_123").Return(nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/payment/success?session_id=cs_1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"paid":true`)
		assert.Contains(t, w.Body.String(), `"totalCents":2000`)

		time.Sleep(100 * time.Millisecond)
		m.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStripeWebhook(t *testing.T) {
	postWebhook := func(r *gin.Engine, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(body))
		req.Header.Set("Stripe-Signature", "t=1,v1=sig")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("signature mismatch is a 400 and never fulfills", func(t *testing.T) {
		r, m := newTestRouter(t)
		m.verifier.On("VerifyAndParse", mock.Anything, mock.Anything).Return(nil, domain.ErrSignatureMismatch)

		w := postWebhook(r, `{"type":"checkout.session.completed"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		m.orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed payload is a 400", func(t *testing.T) {
		r, m := newTestRouter(t)
		m.verifier.On("VerifyAndParse", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidPayload)

		w := postWebhook(r, "{broken")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		m.orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("completed event fulfills the order", func(t *testing.T) {
		r, m := newTestRouter(t)

		order := &domain.Order{ID: 42, UserID: 7, Items: []domain.OrderItem{
			{OrderID: 42, ProductID: 1, PriceCents: 500, Quantity: 1},
		}}
		payment := &domain.Payment{OrderID: 42, StripeID: "pi_123", AmountCents: 500}

		m.verifier.On("VerifyAndParse", mock.Anything, mock.Anything).Return(domain.CheckoutCompleted{
			OrderID: 42, TransactionID: "pi_123", AmountCents: 500,
		}, nil)
		m.orders.On("FindByID", mock.Anything, uint64(42)).Return(order, nil)
		m.orders.On("MarkPaid", mock.Anything, uint64(42), "pi_123").Return(payment, nil)
		m.publisher.On("Publish", mock.Anything, "payment.completed", mock.Anything).Return(nil).Maybe()

		w := postWebhook(r, `{"type":"checkout.session.completed"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		time.Sleep(100 * time.Millisecond)
		m.orders.AssertExpectations(t)
	})

	t.Run("ignored event type is accepted", func(t *testing.T) {
		r, m := newTestRouter(t)
		m.verifier.On("VerifyAndParse", mock.Anything, mock.Anything).Return(domain.IgnoredEvent{Type: "invoice.paid"}, nil)

		w := postWebhook(r, `{"type":"invoice.paid"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		m.orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
	})
}
