package stripe

import (
	"context"
	"fmt"
	"strconv"

	"payment-service/internal/domain"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// Config carries everything the provider integration needs. It is injected
// explicitly instead of setting the package-level stripe key.
type Config struct {
	APIKey        string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Currency      string
}

type LineItem struct {
	Name            string
	UnitAmountCents int64
	Quantity        int64
}

type CheckoutSession struct {
	ID  string
	URL string
}

type Gateway struct {
	client *client.API
	cfg    Config
}

func NewGateway(cfg Config) *Gateway {
	sc := &client.API{}
	sc.Init(cfg.APIKey, nil)
	return &Gateway{client: sc, cfg: cfg}
}

// CreateCheckoutSession opens a hosted checkout page for a one-time payment.
// The order id travels in metadata so the webhook can correlate it back.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, orderID uint64, items []LineItem) (*CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, it := range items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.cfg.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
				UnitAmount: stripe.Int64(it.UnitAmountCents),
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(g.cfg.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(g.cfg.CancelURL),
	}
	params.AddMetadata("order_id", strconv.FormatUint(orderID, 10))
	// fresh key per attempt, protects against double sessions on network retry
	params.IdempotencyKey = stripe.String(uuid.NewString())
	params.Context = ctx

	sess, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// GetCheckoutSession recovers the order/transaction pair for the redirect-back
// path, where only the provider session id is known.
func (g *Gateway) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutCompleted, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := g.client.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}

	return completedFromSession(sess)
}

func completedFromSession(sess *stripe.CheckoutSession) (*domain.CheckoutCompleted, error) {
	raw, ok := sess.Metadata["order_id"]
	if !ok {
		return nil, fmt.Errorf("%w: session %s has no order_id metadata", domain.ErrInvalidPayload, sess.ID)
	}
	orderID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad order_id metadata %q", domain.ErrInvalidPayload, raw)
	}

	var txnID string
	if sess.PaymentIntent != nil {
		txnID = sess.PaymentIntent.ID
	}

	return &domain.CheckoutCompleted{
		OrderID:       orderID,
		TransactionID: txnID,
		AmountCents:   sess.AmountTotal,
	}, nil
}
