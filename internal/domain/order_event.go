package domain

import "time"

type PaymentCompletedEvent struct {
	OrderID     uint64    `json:"orderId"`
	StripeID    string    `json:"stripeId"`
	AmountCents int64     `json:"amountCents"`
	PaidAt      time.Time `json:"paidAt"`
}
