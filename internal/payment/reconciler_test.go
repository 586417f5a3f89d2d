package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bellafatia-be/internal/metrics"
	"bellafatia-be/internal/order"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) GetStatus(ctx context.Context, id uuid.UUID) (order.Status, *time.Time, error) {
	args := m.Called(ctx, id)
	var exp *time.Time
	if args.Get(1) != nil {
		exp = args.Get(1).(*time.Time)
	}
	return args.Get(0).(order.Status), exp, args.Error(2)
}

func (m *MockOrderStore) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, next order.Status) (bool, error) {
	args := m.Called(ctx, id, next)
	return args.Bool(0), args.Error(1)
}

type MockLogRepo struct {
	mock.Mock
}

func (m *MockLogRepo) AppendLog(ctx context.Context, l *Log) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLogRepo) LogsByOrder(ctx context.Context, orderID string) ([]Log, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Log), args.Error(1)
}

func newTestReconciler(orders *MockOrderStore, logs *MockLogRepo) *Reconciler {
	return NewReconciler(orders, logs, &metrics.Payment{})
}

func approvedTxn() *Transaction {
	return &Transaction{
		ID:                "txn-1",
		Status:            GatewayStatusApproved,
		ExternalReference: uuid.Nil.String(),
		Raw:               json.RawMessage(`{"status":"approved"}`),
	}
}

func TestReconciler_ApplyGatewayStatus(t *testing.T) {
	orderID := uuid.New()

	t.Run("ApprovedTransitionsToPaid", func(t *testing.T) {
		orders := new(MockOrderStore)
		logs := new(MockLogRepo)
		r := newTestReconciler(orders, logs)

		logs.On("AppendLog", mock.Anything, mock.MatchedBy(func(l *Log) bool {
			return l.OrderID == orderID.String() && l.Status == GatewayStatusApproved
		})).Return(nil)
		orders.On("UpdateStatusIfPending", mock.Anything, orderID, order.StatusPaid).
			Return(true, nil)

		status, err := r.ApplyGatewayStatus(context.Background(), orderID, approvedTxn())
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, status)
		logs.AssertExpectations(t)
		orders.AssertExpectations(t)
	})

	t.Run("DuplicateDeliveryIsNoop", func(t *testing.T) {
		orders := new(MockOrderStore)
		logs := new(MockLogRepo)
		r := newTestReconciler(orders, logs)

		// Second identical delivery: the order is already paid. It is still
		// logged, but nothing errors and nothing re-fires.
		logs.On("AppendLog", mock.Anything, mock.Anything).Return(nil)
		orders.On("UpdateStatusIfPending", mock.Anything, orderID, order.StatusPaid).
			Return(false, nil)
		orders.On("GetStatus", mock.Anything, orderID).
			Return(order.StatusPaid, nil, nil)

		status, err := r.ApplyGatewayStatus(context.Background(), orderID, approvedTxn())
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, status)
	})

	t.Run("CancelledTransitionsToExpired", func(t *testing.T) {
		orders := new(MockOrderStore)
		logs := new(MockLogRepo)
		r := newTestReconciler(orders, logs)

		logs.On("AppendLog", mock.Anything, mock.Anything).Return(nil)
		orders.On("UpdateStatusIfPending", mock.Anything, orderID, order.StatusExpired).
			Return(true, nil)

		txn := &Transaction{ID: "txn-2", Status: GatewayStatusCancelled}
		status, err := r.ApplyGatewayStatus(context.Background(), orderID, txn)
		require.NoError(t, err)
		assert.Equal(t, order.StatusExpired, status)
	})

	t.Run("UnknownStatusLeavesOrderAlone", func(t *testing.T) {
		orders := new(MockOrderStore)
		logs := new(MockLogRepo)
		r := newTestReconciler(orders, logs)

		logs.On("AppendLog", mock.Anything, mock.Anything).Return(nil)
		orders.On("GetStatus", mock.Anything, orderID).
			Return(order.StatusPending, nil, nil)

		txn := &Transaction{ID: "txn-3", Status: "in_process"}
		status, err := r.ApplyGatewayStatus(context.Background(), orderID, txn)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPending, status)
		orders.AssertNotCalled(t, "UpdateStatusIfPending", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AuditAppendFailureStopsReconciliation", func(t *testing.T) {
		orders := new(MockOrderStore)
		logs := new(MockLogRepo)
		r := newTestReconciler(orders, logs)

		logs.On("AppendLog", mock.Anything, mock.Anything).Return(errors.New("db down"))

		_, err := r.ApplyGatewayStatus(context.Background(), orderID, approvedTxn())
		assert.Error(t, err)
		orders.AssertNotCalled(t, "UpdateStatusIfPending", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ConcurrentPaidAndExpired_ExactlyOneWins", func(t *testing.T) {
		orders := new(MockOrderStore)
		logs := new(MockLogRepo)
		r := newTestReconciler(orders, logs)

		logs.On("AppendLog", mock.Anything, mock.Anything).Return(nil)

		// Webhook reporting approved arrives first and wins.
		orders.On("UpdateStatusIfPending", mock.Anything, orderID, order.StatusPaid).
			Return(true, nil).Once()

		status, err := r.ApplyGatewayStatus(context.Background(), orderID, approvedTxn())
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, status)

		// The racing expiration report observes a no-op and reflects paid.
		orders.On("UpdateStatusIfPending", mock.Anything, orderID, order.StatusExpired).
			Return(false, nil).Once()
		orders.On("GetStatus", mock.Anything, orderID).
			Return(order.StatusPaid, nil, nil)

		txn := &Transaction{ID: "txn-1", Status: GatewayStatusExpired}
		status, err = r.ApplyGatewayStatus(context.Background(), orderID, txn)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, status)
	})
}

func TestReconciler_CheckStatus(t *testing.T) {
	orderID := uuid.New()
	expiration := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)

	t.Run("PendingBeforeExpiration", func(t *testing.T) {
		orders := new(MockOrderStore)
		logs := new(MockLogRepo)
		r := newTestReconciler(orders, logs)
		r.now = func() time.Time { return expiration.Add(-10 * time.Minute) }

		orders.On("GetStatus", mock.Anything, orderID).
			Return(order.StatusPending, &expiration, nil)

		status, err := r.CheckStatus(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPending, status)
		orders.AssertNotCalled(t, "UpdateStatusIfPending", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ExactlyAtExpirationIsNotExpired", func(t *testing.T) {
		orders := new(MockOrderStore)
		logs := new(MockLogRepo)
		r := newTestReconciler(orders, logs)
		r.now = func() time.Time { return expiration }

		orders.On("GetStatus", mock.Anything, orderID).
			Return(order.StatusPending, &expiration, nil)

		status, err := r.CheckStatus(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPending, status)
		orders.AssertNotCalled(t, "UpdateStatusIfPending", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PastExpirationTransitionsToExpired", func(t *testing.T) {
		orders := new(MockOrderStore)
		logs := new(MockLogRepo)
		r := newTestReconciler(orders, logs)
		r.now = func() time.Time { return expiration.Add(time.Minute) }

		orders.On("GetStatus", mock.Anything, orderID).
			Return(order.StatusPending, &expiration, nil)
		logs.On("AppendLog", mock.Anything, mock.MatchedBy(func(l *Log) bool {
			return l.Provider == providerClock && l.Status == GatewayStatusExpired
		})).Return(nil)
		orders.On("UpdateStatusIfPending", mock.Anything, orderID, order.StatusExpired).
			Return(true, nil)

		status, err := r.CheckStatus(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusExpired, status)
		logs.AssertExpectations(t)
	})

	t.Run("WebhookWonTheRace_ReflectsStoredStatus", func(t *testing.T) {
		orders := new(MockOrderStore)
		logs := new(MockLogRepo)
		r := newTestReconciler(orders, logs)
		r.now = func() time.Time { return expiration.Add(time.Minute) }

		orders.On("GetStatus", mock.Anything, orderID).
			Return(order.StatusPending, &expiration, nil).Once()
		logs.On("AppendLog", mock.Anything, mock.Anything).Return(nil)
		orders.On("UpdateStatusIfPending", mock.Anything, orderID, order.StatusExpired).
			Return(false, nil)
		orders.On("GetStatus", mock.Anything, orderID).
			Return(order.StatusPaid, &expiration, nil).Once()

		status, err := r.CheckStatus(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, status)
	})

	t.Run("TerminalStatusIsReflectedWithoutWrites", func(t *testing.T) {
		orders := new(MockOrderStore)
		logs := new(MockLogRepo)
		r := newTestReconciler(orders, logs)
		r.now = func() time.Time { return expiration.Add(time.Hour) }

		orders.On("GetStatus", mock.Anything, orderID).
			Return(order.StatusExpired, &expiration, nil)

		status, err := r.CheckStatus(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusExpired, status)
		orders.AssertNotCalled(t, "UpdateStatusIfPending", mock.Anything, mock.Anything, mock.Anything)
		logs.AssertNotCalled(t, "AppendLog", mock.Anything, mock.Anything)
	})

	t.Run("OrderNotFound", func(t *testing.T) {
		orders := new(MockOrderStore)
		logs := new(MockLogRepo)
		r := newTestReconciler(orders, logs)

		orders.On("GetStatus", mock.Anything, orderID).
			Return(order.Status(""), nil, order.ErrOrderNotFound)

		_, err := r.CheckStatus(context.Background(), orderID)
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})
}
