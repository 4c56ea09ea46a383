package orders

import "errors"

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyCart         = errors.New("no items in order")
	ErrNoUser            = errors.New("user id is required")
	ErrNoLocation        = errors.New("delivery location is required")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrUnknownItem       = errors.New("item not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrRequestInFlight   = errors.New("order request already in progress")
)
