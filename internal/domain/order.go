package domain

import "time"

type Order struct {
	ID        uint64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint64      `json:"userId" gorm:"not null;index"`
	Paid      bool        `json:"paid" gorm:"not null;default:false"`
	Items     []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt time.Time   `json:"createdAt" gorm:"autoCreateTime"`
}

// TotalCents sums price*quantity over the order's items.
func (o *Order) TotalCents() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.PriceCents * it.Quantity
	}
	return total
}

type OrderItem struct {
	ID         uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID    uint64 `json:"orderId" gorm:"not null;index"`
	ProductID  uint64 `json:"productId" gorm:"not null;index"`
	PriceCents int64  `json:"priceCents" gorm:"not null"`
	Quantity   int64  `json:"quantity" gorm:"not null"`
}

type Product struct {
	ID         uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	Name       string `json:"name" gorm:"not null"`
	PriceCents int64  `json:"priceCents" gorm:"not null"`
}

type Payment struct {
	ID          uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID     uint64    `json:"orderId" gorm:"not null;uniqueIndex"`
	StripeID    string    `json:"stripeId" gorm:"not null"`
	AmountCents int64     `json:"amountCents" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
