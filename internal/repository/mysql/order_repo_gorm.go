package mysql

import (
	"context"
	"errors"
	"log"

	"payment-service/internal/domain"
	"payment-service/internal/repository"

	"gorm.io/gorm"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) CreateWithItems(ctx context.Context, order *domain.Order) error {
	// gorm creates the associated items inside the same transaction
	result := r.db.WithContext(ctx).Create(order)
	if result.Error != nil {
		log.Printf("CreateWithItems error: %v", result.Error)
		return result.Error
	}

	if order.ID == 0 {
		return errors.New("failed to assign order ID")
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindByID error: %v", err)
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) DeleteWithItems(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Order{}, id).Error
	})
}

// MarkPaid flips paid with a conditional update so that concurrent callers
// (redirect-back and webhook) cannot both insert a payment. The unique index
// on payments.order_id backstops the race.
func (r *orderRepo) MarkPaid(ctx context.Context, orderID uint64, stripeID string) (*domain.Payment, error) {
	var payment *domain.Payment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Order{}).
			Where("id = ? AND paid = ?", orderID, false).
			Update("paid", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// already paid, nothing to do
			return nil
		}

		var items []domain.OrderItem
		if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
			return err
		}
		var total int64
		for _, it := range items {
			total += it.PriceCents * it.Quantity
		}

		p := &domain.Payment{
			OrderID:     orderID,
			StripeID:    stripeID,
			AmountCents: total,
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		log.Printf("MarkPaid error: %v", err)
		return nil, err
	}
	return payment, nil
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) repository.ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("product FindByID error: %v", err)
		return nil, err
	}
	return &p, nil
}
