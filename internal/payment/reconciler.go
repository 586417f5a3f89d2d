package payment

import (
	"context"
	"time"

	"bellafatia-be/internal/logger"
	"bellafatia-be/internal/metrics"
	"bellafatia-be/internal/order"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const providerMercadoPago = "mercado_pago"

// providerClock marks audit rows produced by the expiration check rather
// than by a gateway notification.
const providerClock = "system"

// OrderStore is the slice of the order repository the reconciler needs.
type OrderStore interface {
	GetStatus(ctx context.Context, id uuid.UUID) (order.Status, *time.Time, error)
	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, next order.Status) (bool, error)
}

// Reconciler is the single owner of transitions out of pending. Both the
// webhook path and the polling path funnel into it; the conditional update
// in the store guarantees that racing paths apply at most one transition.
type Reconciler struct {
	orders OrderStore
	logs   Repository
	m      *metrics.Payment
	now    func() time.Time
}

func NewReconciler(orders OrderStore, logs Repository, m *metrics.Payment) *Reconciler {
	return &Reconciler{
		orders: orders,
		logs:   logs,
		m:      m,
		now:    time.Now,
	}
}

// ApplyGatewayStatus records a gateway-reported status and applies the
// guarded transition it implies. The audit row is appended before any
// mutation is attempted. A transition attempt against a non-pending order
// is a no-op, never an error.
func (r *Reconciler) ApplyGatewayStatus(ctx context.Context, orderID uuid.UUID, txn *Transaction) (order.Status, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", orderID.String()),
		zap.String("transaction_id", txn.ID),
		zap.String("gateway_status", txn.Status),
	)

	if err := r.logs.AppendLog(ctx, &Log{
		OrderID:       orderID.String(),
		Provider:      providerMercadoPago,
		TransactionID: txn.ID,
		Status:        txn.Status,
		Payload:       txn.Raw,
	}); err != nil {
		log.Error("failed to append payment log", zap.Error(err))
		return "", err
	}

	next, ok := transitionFor(txn.Status)
	if !ok {
		log.Info("gateway status implies no transition")
		current, _, err := r.orders.GetStatus(ctx, orderID)
		return current, err
	}

	applied, err := r.orders.UpdateStatusIfPending(ctx, orderID, next)
	if err != nil {
		log.Error("failed to apply transition", zap.Error(err))
		return "", err
	}

	if applied {
		r.m.TransitionsApplied.Inc()
		log.Info("order transitioned", zap.String("status", string(next)))
		return next, nil
	}

	// Another path won the race. Log and reflect whatever is stored.
	r.m.StaleNoops.Inc()
	current, _, err := r.orders.GetStatus(ctx, orderID)
	if err != nil {
		return "", err
	}
	log.Info("stale transition ignored", zap.String("status", string(current)))
	return current, nil
}

// CheckStatus is the polling entry point. It reflects the stored status and,
// while the order is still pending, applies the expiration transition once
// the window has strictly passed. A check performed at exactly the
// expiration instant still reports pending.
func (r *Reconciler) CheckStatus(ctx context.Context, orderID uuid.UUID) (order.Status, error) {
	status, pixExpiration, err := r.orders.GetStatus(ctx, orderID)
	if err != nil {
		return "", err
	}

	if status != order.StatusPending || pixExpiration == nil {
		return status, nil
	}

	if !r.now().After(*pixExpiration) {
		return status, nil
	}

	return r.expire(ctx, orderID)
}

func (r *Reconciler) expire(ctx context.Context, orderID uuid.UUID) (order.Status, error) {
	log := logger.FromCtx(ctx).With(zap.String("order_id", orderID.String()))

	if err := r.logs.AppendLog(ctx, &Log{
		OrderID:  orderID.String(),
		Provider: providerClock,
		Status:   GatewayStatusExpired,
	}); err != nil {
		log.Error("failed to append payment log", zap.Error(err))
		return "", err
	}

	applied, err := r.orders.UpdateStatusIfPending(ctx, orderID, order.StatusExpired)
	if err != nil {
		return "", err
	}

	if applied {
		r.m.TransitionsApplied.Inc()
		log.Info("order expired")
		return order.StatusExpired, nil
	}

	r.m.StaleNoops.Inc()
	current, _, err := r.orders.GetStatus(ctx, orderID)
	return current, err
}

// transitionFor maps a gateway-reported charge status onto the order state
// machine. Anything unknown stays put.
func transitionFor(gatewayStatus string) (order.Status, bool) {
	switch gatewayStatus {
	case GatewayStatusApproved:
		return order.StatusPaid, true
	case GatewayStatusCancelled, GatewayStatusExpired, GatewayStatusRejected:
		return order.StatusExpired, true
	default:
		return "", false
	}
}
