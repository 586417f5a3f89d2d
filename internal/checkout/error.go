package checkout

import "errors"

var (
	// ErrOrderCreation wraps persistence failures that happen before any
	// external call. Nothing external was touched; retrying from scratch is
	// safe.
	ErrOrderCreation = errors.New("failed to create order")

	ErrNameRequired    = errors.New("customer name is required")
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrInvalidNumber   = errors.New("street number must contain only digits")
	ErrEmailRequired   = errors.New("email is required for pix payment")
	ErrInvalidEmail    = errors.New("malformed email address")
	ErrNoItems         = errors.New("order has no items")
	ErrInvalidQuantity = errors.New("item quantity must be at least 1")
	ErrUnknownMethod   = errors.New("unknown payment method")

	ErrOrderClosed = errors.New("order is no longer pending")
	ErrNotPix      = errors.New("order is not a pix order")
)
