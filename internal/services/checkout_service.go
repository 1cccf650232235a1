package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"payment-service/internal/domain"
	rabbit "payment-service/internal/infra/rabbitmq"
	infstripe "payment-service/internal/infra/stripe"
	"payment-service/internal/repository"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"
)

type CheckoutService struct {
	orders      repository.OrderRepository
	products    repository.ProductRepository
	gateway     infstripe.GatewayInterface
	publisher   rabbit.PublisherInterface
	redisClient *redis.Client

	// collapses concurrent fulfillment attempts for the same order
	fulfillGroup singleflight.Group
}

func NewCheckoutService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	gateway infstripe.GatewayInterface,
	publisher rabbit.PublisherInterface,
) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		products:  products,
		gateway:   gateway,
		publisher: publisher,
	}
}

func (s *CheckoutService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

type cartLine struct {
	product  *domain.Product
	quantity int64
}

// BeginCheckout validates the cart, writes the provisional order and opens a
// hosted checkout session. Validation happens before any row is written, so a
// bad quantity or unknown product leaves nothing behind. If the provider call
// fails, the provisional order is rolled back instead of dangling unpaid.
func (s *CheckoutService) BeginCheckout(ctx context.Context, userID uint64, productIDs, quantities []string) (string, error) {
	if len(productIDs) == 0 || len(productIDs) != len(quantities) {
		return "", fmt.Errorf("%w: products and quantities must be non-empty and paired", domain.ErrInvalidRequest)
	}

	lines := make([]cartLine, 0, len(productIDs))
	for i, rawID := range productIDs {
		productID, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: bad product id %q", domain.ErrInvalidRequest, rawID)
		}

		qty, err := strconv.ParseInt(quantities[i], 10, 64)
		if err != nil || qty <= 0 {
			return "", fmt.Errorf("%w: %q", domain.ErrInvalidQuantity, quantities[i])
		}

		prod, err := s.getProductWithCache(ctx, productID)
		if err != nil {
			return "", err
		}
		if prod == nil {
			return "", fmt.Errorf("%w: id %d", domain.ErrProductNotFound, productID)
		}

		lines = append(lines, cartLine{product: prod, quantity: qty})
	}

	order := &domain.Order{UserID: userID}
	lineItems := make([]infstripe.LineItem, 0, len(lines))
	for _, l := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:  l.product.ID,
			PriceCents: l.product.PriceCents,
			Quantity:   l.quantity,
		})
		lineItems = append(lineItems, infstripe.LineItem{
			Name:            l.product.Name,
			UnitAmountCents: l.product.PriceCents,
			Quantity:        l.quantity,
		})
	}

	if err := s.orders.CreateWithItems(ctx, order); err != nil {
		return "", err
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, order.ID, lineItems)
	if err != nil {
		if delErr := s.orders.DeleteWithItems(ctx, order.ID); delErr != nil {
			log.Printf("failed to roll back order %d after provider error: %v", order.ID, delErr)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	return sess.URL, nil
}

// Fulfill marks the order paid and records the payment receipt exactly once.
// The redirect-back handler and the webhook handler both land here, possibly
// at the same time; duplicate calls are no-ops.
func (s *CheckoutService) Fulfill(ctx context.Context, orderID uint64, transactionID string) (*domain.Order, error) {
	key := fmt.Sprintf("fulfill_%d", orderID)

	v, err, _ := s.fulfillGroup.Do(key, func() (interface{}, error) {
		order, err := s.fulfill(ctx, orderID, transactionID)
		if err != nil {
			return nil, err
		}
		return order, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Order), nil
}

func (s *CheckoutService) fulfill(ctx context.Context, orderID uint64, transactionID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, orderID)
	}

	payment, err := s.orders.MarkPaid(ctx, orderID, transactionID)
	if err != nil {
		return nil, err
	}
	order.Paid = true

	if payment != nil {
		// first fulfillment for this order
		go s.publishPaymentCompletedEvent(context.Background(), payment)
	}

	return order, nil
}

// FulfillFromSession serves the redirect-back path, where only the provider
// session id is known.
func (s *CheckoutService) FulfillFromSession(ctx context.Context, sessionID string) (*domain.Order, error) {
	completed, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	return s.Fulfill(ctx, completed.OrderID, completed.TransactionID)
}

// HandleWebhookEvent dispatches a verified provider event. Event types the
// service does not act on are logged and accepted.
func (s *CheckoutService) HandleWebhookEvent(ctx context.Context, event domain.WebhookEvent) error {
	switch e := event.(type) {
	case domain.CheckoutCompleted:
		_, err := s.Fulfill(ctx, e.OrderID, e.TransactionID)
		return err
	case domain.IgnoredEvent:
		log.Printf("ignoring webhook event type %q", e.Type)
		return nil
	default:
		log.Printf("ignoring unrecognized webhook event %T", event)
		return nil
	}
}

func (s *CheckoutService) getProductWithCache(ctx context.Context, productID uint64) (*domain.Product, error) {
	cacheKey := fmt.Sprintf("product:%d", productID)

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var prod domain.Product
			if err := json.Unmarshal([]byte(cached), &prod); err == nil {
				return &prod, nil
			}
		}
	}

	prod, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil && prod != nil {
		if data, err := json.Marshal(prod); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, time.Minute)
		}
	}

	return prod, nil
}

func (s *CheckoutService) publishPaymentCompletedEvent(ctx context.Context, payment *domain.Payment) {
	evt := domain.PaymentCompletedEvent{
		OrderID:     payment.OrderID,
		StripeID:    payment.StripeID,
		AmountCents: payment.AmountCents,
		PaidAt:      time.Now(),
	}

	if err := s.publisher.Publish(ctx, "payment.completed", evt); err != nil {
		log.Printf("Failed to publish payment.completed for order %d: %v", payment.OrderID, err)
	}
}
