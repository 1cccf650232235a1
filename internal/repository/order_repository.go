package repository

import (
	"context"

	"payment-service/internal/domain"
)

type OrderRepository interface {
	// CreateWithItems persists the order and all of its items in one transaction.
	CreateWithItems(ctx context.Context, order *domain.Order) error
	// FindByID returns (nil, nil) when no order exists with the given id.
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	// DeleteWithItems removes a provisional order and its items.
	DeleteWithItems(ctx context.Context, id uint64) error
	// MarkPaid atomically flips paid from false to true and records the payment.
	// Returns (nil, nil) when the order was already paid.
	MarkPaid(ctx context.Context, orderID uint64, stripeID string) (*domain.Payment, error)
}

type ProductRepository interface {
	// FindByID returns (nil, nil) when no product exists with the given id.
	FindByID(ctx context.Context, id uint64) (*domain.Product, error)
}
