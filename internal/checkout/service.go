package checkout

import (
	"context"
	"fmt"
	"time"

	"bellafatia-be/internal/logger"
	"bellafatia-be/internal/order"
	"bellafatia-be/internal/payment"
	"bellafatia-be/internal/product"
	"bellafatia-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ItemInput struct {
	ProductID uint
	Quantity  int
}

type Input struct {
	CustomerID *uint

	Name         string
	Phone        string
	Email        string
	Address      string
	Number       string
	Neighborhood string
	Complement   string
	Notes        string

	PaymentMethod order.PaymentMethod
	ChangeFor     *decimal.Decimal
	Items         []ItemInput
}

// PixCharge is what the storefront renders while the customer pays.
type PixCharge struct {
	CopyPasteCode string
	QRCodeBase64  string
	TicketURL     string
	ExpiresAt     time.Time
}

type Result struct {
	OrderID    uuid.UUID
	Status     order.Status
	TotalPrice decimal.Decimal
	// Pix is set for pix orders; WhatsAppURL for methods settled on delivery.
	Pix         *PixCharge
	WhatsAppURL string
}

// StatusChecker is the polling entry into the reconciler.
type StatusChecker interface {
	CheckStatus(ctx context.Context, orderID uuid.UUID) (order.Status, error)
}

// Handoff turns a persisted order into the out-of-band summary for the crew.
type Handoff interface {
	OrderHandoffURL(o *order.Order) string
}

type Service interface {
	Checkout(ctx context.Context, input Input) (*Result, error)
	RetryPayment(ctx context.Context, orderID uuid.UUID) (*PixCharge, error)
	OrderStatus(ctx context.Context, orderID uuid.UUID) (order.Status, error)
}

type service struct {
	orders   order.Repository
	products product.Repository
	gateway  payment.Gateway
	status   StatusChecker
	handoff  Handoff

	pixWindow    time.Duration
	retryBackoff time.Duration
	now          func() time.Time
}

func NewService(
	orders order.Repository,
	products product.Repository,
	gateway payment.Gateway,
	status StatusChecker,
	handoff Handoff,
	pixWindow time.Duration,
) Service {
	return &service{
		orders:       orders,
		products:     products,
		gateway:      gateway,
		status:       status,
		handoff:      handoff,
		pixWindow:    pixWindow,
		retryBackoff: 2 * time.Second,
		now:          time.Now,
	}
}

func (s *service) Checkout(ctx context.Context, input Input) (*Result, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("payment_method", string(input.PaymentMethod)),
		zap.Int("item_count", len(input.Items)),
	)

	if err := validate(input); err != nil {
		log.Warn("checkout rejected", zap.Error(err))
		return nil, err
	}

	o, err := s.buildOrder(ctx, input)
	if err != nil {
		return nil, err
	}

	log = log.With(zap.String("order_id", o.ID.String()))

	if err := s.orders.CreateOrderTx(ctx, o); err != nil {
		log.Error("order persistence failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrOrderCreation, err)
	}

	log.Info("order created", zap.String("total", o.TotalPrice.StringFixed(2)))

	result := &Result{
		OrderID:    o.ID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice,
	}

	if input.PaymentMethod != order.MethodPix {
		result.WhatsAppURL = s.handoff.OrderHandoffURL(o)
		return result, nil
	}

	charge, err := s.createCharge(ctx, o)
	if err != nil {
		// The order stays pending with no charge fields; the caller may
		// retry payment setup against the same order.
		log.Error("payment setup failed", zap.Error(err))
		return result, err
	}

	if _, err := s.orders.SetPixCharge(ctx, o.ID, charge.CopyPasteCode, charge.ExpiresAt); err != nil {
		log.Error("failed to persist charge fields", zap.Error(err))
		return result, err
	}

	result.Pix = &PixCharge{
		CopyPasteCode: charge.CopyPasteCode,
		QRCodeBase64:  charge.QRCodeBase64,
		TicketURL:     charge.TicketURL,
		ExpiresAt:     charge.ExpiresAt,
	}
	return result, nil
}

// RetryPayment re-runs payment setup for a pending pix order whose gateway
// invocation failed. The idempotency key is derived from the order, so the
// gateway sees the same key as the original attempt.
func (s *service) RetryPayment(ctx context.Context, orderID uuid.UUID) (*PixCharge, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.PaymentMethod != order.MethodPix {
		return nil, ErrNotPix
	}
	if o.Status != order.StatusPending {
		return nil, ErrOrderClosed
	}

	if o.PixCode != nil && o.PixExpiration != nil {
		// Charge fields are written once; hand back what is stored.
		return &PixCharge{CopyPasteCode: *o.PixCode, ExpiresAt: *o.PixExpiration}, nil
	}

	charge, err := s.createCharge(ctx, o)
	if err != nil {
		return nil, err
	}

	if _, err := s.orders.SetPixCharge(ctx, o.ID, charge.CopyPasteCode, charge.ExpiresAt); err != nil {
		return nil, err
	}

	return &PixCharge{
		CopyPasteCode: charge.CopyPasteCode,
		QRCodeBase64:  charge.QRCodeBase64,
		TicketURL:     charge.TicketURL,
		ExpiresAt:     charge.ExpiresAt,
	}, nil
}

func (s *service) OrderStatus(ctx context.Context, orderID uuid.UUID) (order.Status, error) {
	return s.status.CheckStatus(ctx, orderID)
}

// createCharge invokes the gateway with one bounded retry on rejection.
// Configuration and protocol failures are surfaced immediately.
func (s *service) createCharge(ctx context.Context, o *order.Order) (*payment.Charge, error) {
	req := payment.ChargeRequest{
		OrderID:        o.ID.String(),
		Amount:         o.TotalPrice,
		PayerName:      o.CustomerName,
		PayerEmail:     o.Email,
		Description:    fmt.Sprintf("Pedido Bella Fatia #%s", shortID(o.ID)),
		IdempotencyKey: fmt.Sprintf("%s-%d", o.ID, o.CreatedAt.Unix()),
		ExpiresAt:      s.now().Add(s.pixWindow),
	}

	charge, err := s.gateway.CreateCharge(ctx, req)
	if err == nil {
		return charge, nil
	}
	if !payment.IsRejected(err) {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.retryBackoff):
	}

	return s.gateway.CreateCharge(ctx, req)
}

func (s *service) buildOrder(ctx context.Context, input Input) (*order.Order, error) {
	ids := make([]uint, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}

	menu, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		ID:            uuid.New(),
		CustomerID:    input.CustomerID,
		CustomerName:  input.Name,
		Phone:         utils.NormalizePhoneBR(input.Phone),
		Email:         input.Email,
		Address:       input.Address,
		Number:        input.Number,
		Neighborhood:  input.Neighborhood,
		Complement:    input.Complement,
		Notes:         input.Notes,
		PaymentMethod: input.PaymentMethod,
		ChangeFor:     input.ChangeFor,
		Status:        order.StatusPending,
		CreatedAt:     s.now().UTC(),
	}

	total := decimal.Zero
	for _, item := range input.Items {
		p := menu[item.ProductID]
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)

		o.Items = append(o.Items, order.Item{
			OrderID:     o.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			UnitPrice:   p.Price,
			Subtotal:    subtotal,
		})
	}
	o.TotalPrice = total

	return o, nil
}

func validate(input Input) error {
	if input.Name == "" {
		return ErrNameRequired
	}
	if !utils.IsPhoneBR(input.Phone) {
		return ErrInvalidPhone
	}
	if input.Number != "" && !utils.IsDigits(input.Number) {
		return ErrInvalidNumber
	}
	if len(input.Items) == 0 {
		return ErrNoItems
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}

	switch input.PaymentMethod {
	case order.MethodCash, order.MethodCard:
	case order.MethodPix:
		if input.Email == "" {
			return ErrEmailRequired
		}
		if !utils.IsEmail(input.Email) {
			return ErrInvalidEmail
		}
	default:
		return ErrUnknownMethod
	}

	return nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
