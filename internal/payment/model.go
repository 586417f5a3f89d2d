package payment

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ChargeRequest asks the processor for a new PIX charge.
type ChargeRequest struct {
	OrderID     string
	Amount      decimal.Decimal
	PayerName   string
	PayerEmail  string
	Description string
	// IdempotencyKey must be stable per order so processor-side retries do
	// not create duplicate charges.
	IdempotencyKey string
	ExpiresAt      time.Time
}

// Charge is the processor's answer: the copy-paste payload the customer
// pastes into their bank app, the QR image, and when it stops being payable.
type Charge struct {
	TransactionID string
	CopyPasteCode string
	QRCodeBase64  string
	TicketURL     string
	ExpiresAt     time.Time
	Status        string
}

// Transaction is the authoritative charge record fetched back from the
// processor during reconciliation.
type Transaction struct {
	ID                string
	Status            string
	ExternalReference string
	Raw               json.RawMessage
}

// Log is one append-only audit record per inbound gateway notification.
type Log struct {
	ID            int64
	OrderID       string
	Provider      string
	TransactionID string
	Status        string
	Payload       json.RawMessage
	CreatedAt     time.Time
}

// Statuses the processor reports for a PIX charge.
const (
	GatewayStatusPending   = "pending"
	GatewayStatusApproved  = "approved"
	GatewayStatusCancelled = "cancelled"
	GatewayStatusExpired   = "expired"
	GatewayStatusRejected  = "rejected"
)
