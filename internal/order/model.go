package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusExpired   Status = "expired"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether automated reconciliation may still move the
// order. Every status except pending is final for the payment workflow;
// completed is reached from paid only through fulfillment.
func (s Status) Terminal() bool {
	return s != StatusPending
}

type PaymentMethod string

const (
	MethodCash PaymentMethod = "cash"
	MethodCard PaymentMethod = "card"
	MethodPix  PaymentMethod = "pix"
)

type Order struct {
	ID         uuid.UUID
	CustomerID *uint

	// Delivery contact, free text validated for shape only.
	CustomerName string
	Phone        string
	Email        string
	Address      string
	Number       string
	Neighborhood string
	Complement   string
	Notes        string

	TotalPrice    decimal.Decimal
	PaymentMethod PaymentMethod
	ChangeFor     *decimal.Decimal
	Status        Status

	// PIX charge fields, written once when the charge is created and never
	// overwritten. Reconciliation touches status only.
	PixCode       *string
	PixExpiration *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []Item
}

// Item is an immutable line-item snapshot taken at order creation.
type Item struct {
	ID          uint
	OrderID     uuid.UUID
	ProductID   uint
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}
