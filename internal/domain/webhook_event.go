package domain

// WebhookEvent is a verified provider notification. Only events the service
// acts on get their own variant; everything else becomes IgnoredEvent.
type WebhookEvent interface {
	webhookEvent()
}

// CheckoutCompleted reports that the provider collected payment for a
// checkout session we opened earlier.
type CheckoutCompleted struct {
	OrderID       uint64
	TransactionID string
	AmountCents   int64
}

// IgnoredEvent is a verified event of a type this service does not handle.
type IgnoredEvent struct {
	Type string
}

func (CheckoutCompleted) webhookEvent() {}
func (IgnoredEvent) webhookEvent()      {}
