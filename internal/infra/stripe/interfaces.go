package stripe

import (
	"context"

	"payment-service/internal/domain"
)

type GatewayInterface interface {
	CreateCheckoutSession(ctx context.Context, orderID uint64, items []LineItem) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutCompleted, error)
}

type VerifierInterface interface {
	VerifyAndParse(payload []byte, sigHeader string) (domain.WebhookEvent, error)
}

var _ GatewayInterface = (*Gateway)(nil)
var _ VerifierInterface = (*WebhookVerifier)(nil)
