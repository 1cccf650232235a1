package domain

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid checkout request")
	ErrInvalidQuantity     = errors.New("quantity must be a positive integer")
	ErrProductNotFound     = errors.New("product not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrInvalidPayload      = errors.New("invalid webhook payload")
	ErrSignatureMismatch   = errors.New("webhook signature mismatch")
)
