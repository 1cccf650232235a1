package http

type OrderItemResponse struct {
	ProductID  uint64 `json:"productId"`
	PriceCents int64  `json:"priceCents"`
	Quantity   int64  `json:"quantity"`
}

type OrderResponse struct {
	ID         uint64              `json:"id"`
	Paid       bool                `json:"paid"`
	TotalCents int64               `json:"totalCents"`
	Items      []OrderItemResponse `json:"items,omitempty"`
}
