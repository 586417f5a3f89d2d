package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() *Order {
	return &Order{
		ID:            uuid.New(),
		CustomerName:  "Maria Souza",
		Phone:         "5511988887777",
		Email:         "maria@example.com",
		Address:       "Rua das Flores",
		Number:        "123",
		TotalPrice:    decimal.RequireFromString("102.50"),
		PaymentMethod: MethodPix,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
		Items: []Item{
			{ProductID: 1, ProductName: "Pizza Margherita", Quantity: 2,
				UnitPrice: decimal.RequireFromString("45.00"), Subtotal: decimal.RequireFromString("90.00")},
			{ProductID: 2, ProductName: "Guaraná 2L", Quantity: 1,
				UnitPrice: decimal.RequireFromString("12.50"), Subtotal: decimal.RequireFromString("12.50")},
		},
	}
}

func TestRepository_CreateOrderTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("Success", func(t *testing.T) {
		o := testOrder()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO order_items`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO order_items`).
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		err := repo.CreateOrderTx(context.Background(), o)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ItemInsertFailureRollsBack", func(t *testing.T) {
		o := testOrder()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO order_items`).
			WillReturnError(errors.New("constraint violation"))
		mock.ExpectRollback()

		err := repo.CreateOrderTx(context.Background(), o)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoItems", func(t *testing.T) {
		o := testOrder()
		o.Items = nil

		err := repo.CreateOrderTx(context.Background(), o)
		assert.ErrorIs(t, err, ErrEmptyOrder)
	})
}

func TestRepository_GetStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	orderID := uuid.New()

	t.Run("PendingWithExpiration", func(t *testing.T) {
		expiration := time.Now().Add(15 * time.Minute)
		mock.ExpectQuery(`SELECT status, pix_expiration FROM orders`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"status", "pix_expiration"}).
				AddRow("pending", expiration))

		status, exp, err := repo.GetStatus(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, status)
		require.NotNil(t, exp)
		assert.True(t, exp.Equal(expiration))
	})

	t.Run("PaidWithoutExpiration", func(t *testing.T) {
		mock.ExpectQuery(`SELECT status, pix_expiration FROM orders`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"status", "pix_expiration"}).
				AddRow("paid", nil))

		status, exp, err := repo.GetStatus(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, status)
		assert.Nil(t, exp)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT status, pix_expiration FROM orders`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"status", "pix_expiration"}))

		_, _, err := repo.GetStatus(context.Background(), orderID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepository_UpdateStatusIfPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	orderID := uuid.New()

	t.Run("AppliedWhilePending", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(StatusPaid, orderID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		applied, err := repo.UpdateStatusIfPending(context.Background(), orderID, StatusPaid)
		require.NoError(t, err)
		assert.True(t, applied)
	})

	t.Run("NoopWhenAlreadyTerminal", func(t *testing.T) {
		// The row exists but its status no longer matches the predicate.
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(StatusExpired, orderID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		applied, err := repo.UpdateStatusIfPending(context.Background(), orderID, StatusExpired)
		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.UpdateStatusIfPending(context.Background(), orderID, StatusPaid)
		assert.Error(t, err)
	})
}

func TestRepository_SetPixCharge(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	orderID := uuid.New()
	expiration := time.Now().Add(15 * time.Minute)

	t.Run("FirstWriteSucceeds", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders`).
			WithArgs("pix-code", expiration, orderID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		applied, err := repo.SetPixCharge(context.Background(), orderID, "pix-code", expiration)
		require.NoError(t, err)
		assert.True(t, applied)
	})

	t.Run("SecondWriteIsNoop", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders`).
			WithArgs("other-code", expiration, orderID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		applied, err := repo.SetPixCharge(context.Background(), orderID, "other-code", expiration)
		require.NoError(t, err)
		assert.False(t, applied)
	})
}

func TestRepository_FindExpiredPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()

	t.Run("ReturnsStaleOrders", func(t *testing.T) {
		id1, id2 := uuid.New(), uuid.New()
		mock.ExpectQuery(`SELECT id FROM orders`).
			WithArgs(now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id1).AddRow(id2))

		ids, err := repo.FindExpiredPending(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{id1, id2}, ids)
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id FROM orders`).
			WithArgs(now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		ids, err := repo.FindExpiredPending(context.Background(), now)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestRepository_GetOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	orderID := uuid.New()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		orderRow := sqlmock.NewRows([]string{
			"id", "customer_id", "customer_name", "phone", "email",
			"address", "number", "neighborhood", "complement", "notes",
			"total_price", "payment_method", "change_for", "status",
			"pix_code", "pix_expiration", "created_at", "updated_at",
		}).AddRow(
			orderID, 7, "Maria Souza", "5511988887777", "maria@example.com",
			"Rua das Flores", "123", "Centro", "", "",
			"102.50", "pix", nil, "pending",
			"pix-code", now.Add(15*time.Minute), now, now,
		)
		mock.ExpectQuery(`SELECT id, customer_id, customer_name`).
			WithArgs(orderID).
			WillReturnRows(orderRow)

		itemRows := sqlmock.NewRows([]string{
			"id", "order_id", "product_id", "product_name", "quantity", "unit_price", "subtotal",
		}).
			AddRow(1, orderID, 1, "Pizza Margherita", 2, "45.00", "90.00").
			AddRow(2, orderID, 2, "Guaraná 2L", 1, "12.50", "12.50")
		mock.ExpectQuery(`SELECT id, order_id, product_id`).
			WithArgs(orderID).
			WillReturnRows(itemRows)

		o, err := repo.GetOrder(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, orderID, o.ID)
		require.NotNil(t, o.CustomerID)
		assert.Equal(t, uint(7), *o.CustomerID)
		assert.Equal(t, "102.50", o.TotalPrice.StringFixed(2))
		require.NotNil(t, o.PixCode)
		assert.Equal(t, "pix-code", *o.PixCode)
		assert.Nil(t, o.ChangeFor)
		require.Len(t, o.Items, 2)
		assert.Equal(t, "Pizza Margherita", o.Items[0].ProductName)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, customer_id, customer_name`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetOrder(context.Background(), orderID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}
