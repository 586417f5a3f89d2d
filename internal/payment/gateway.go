package payment

import (
	"context"
	"net/http"
)

type Gateway interface {
	// CreateCharge requests a PIX charge for an order. Persisting the result
	// is the caller's job; the client itself holds no state.
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	// GetPayment fetches the authoritative transaction record. Webhook
	// handling must go through this instead of trusting notification bodies.
	GetPayment(ctx context.Context, transactionID string) (*Transaction, error)
	// VerifyNotification checks the shared secret on an inbound webhook.
	VerifyNotification(r *http.Request) error
}
