package services

import (
	"time"

	"payment-service/internal/domain"
)

func CreateMockProduct(id uint64, name string, priceCents int64) *domain.Product {
	return &domain.Product{
		ID:         id,
		Name:       name,
		PriceCents: priceCents,
	}
}

func CreateMockOrder(id uint64, userID uint64, paid bool, items ...domain.OrderItem) *domain.Order {
	return &domain.Order{
		ID:        id,
		UserID:    userID,
		Paid:      paid,
		Items:     items,
		CreatedAt: time.Now(),
	}
}

const (
	TestUserID  = uint64(7)
	TestOrderID = uint64(42)
)
