package order

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	CreateOrderTx(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	GetStatus(ctx context.Context, id uuid.UUID) (Status, *time.Time, error)
	SetPixCharge(ctx context.Context, id uuid.UUID, code string, expiration time.Time) (bool, error)
	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, next Status) (bool, error)
	FindExpiredPending(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// CreateOrderTx persists an order and its items in one transaction. Nothing
// external has happened yet when this runs, so a failure is safe to retry
// from scratch.
func (r *repository) CreateOrderTx(ctx context.Context, o *Order) error {
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_id, customer_name, phone, email,
			address, number, neighborhood, complement, notes,
			total_price, payment_method, change_for, status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		o.ID, o.CustomerID, o.CustomerName, o.Phone, o.Email,
		o.Address, o.Number, o.Neighborhood, o.Complement, o.Notes,
		o.TotalPrice, o.PaymentMethod, o.ChangeFor, o.Status, o.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, product_id, product_name, quantity, unit_price, subtotal
			) VALUES ($1,$2,$3,$4,$5,$6)
		`,
			o.ID, item.ProductID, item.ProductName,
			item.Quantity, item.UnitPrice, item.Subtotal,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, customer_name, phone, email,
		       address, number, neighborhood, complement, notes,
		       total_price, payment_method, change_for, status,
		       pix_code, pix_expiration, created_at, updated_at
		FROM orders WHERE id = $1
	`, id)

	var o Order
	var customerID sql.NullInt64
	var changeFor decimal.NullDecimal
	var pixCode sql.NullString
	var pixExpiration sql.NullTime

	err := row.Scan(
		&o.ID, &customerID, &o.CustomerName, &o.Phone, &o.Email,
		&o.Address, &o.Number, &o.Neighborhood, &o.Complement, &o.Notes,
		&o.TotalPrice, &o.PaymentMethod, &changeFor, &o.Status,
		&pixCode, &pixExpiration, &o.CreatedAt, &o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if customerID.Valid {
		id := uint(customerID.Int64)
		o.CustomerID = &id
	}
	if changeFor.Valid {
		o.ChangeFor = &changeFor.Decimal
	}
	if pixCode.Valid {
		o.PixCode = &pixCode.String
	}
	if pixExpiration.Valid {
		o.PixExpiration = &pixExpiration.Time
	}

	items, err := r.getItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *repository) getItems(ctx context.Context, orderID uuid.UUID) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitPrice, &it.Subtotal,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) GetStatus(ctx context.Context, id uuid.UUID) (Status, *time.Time, error) {
	var status Status
	var pixExpiration sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT status, pix_expiration FROM orders WHERE id = $1
	`, id).Scan(&status, &pixExpiration)
	if err == sql.ErrNoRows {
		return "", nil, ErrOrderNotFound
	}
	if err != nil {
		return "", nil, err
	}

	if pixExpiration.Valid {
		return status, &pixExpiration.Time, nil
	}
	return status, nil, nil
}

// SetPixCharge writes the charge payload and expiration exactly once. A
// second call finds the columns already set and reports false.
func (r *repository) SetPixCharge(ctx context.Context, id uuid.UUID, code string, expiration time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET pix_code = $1, pix_expiration = $2, updated_at = now()
		WHERE id = $3 AND pix_code IS NULL
	`, code, expiration, id)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UpdateStatusIfPending applies the first-writer-wins transition. The WHERE
// clause is the whole concurrency story: when webhook and polling race on
// the same order, the database lets exactly one of them through.
func (r *repository) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, next Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = 'pending'
	`, next, id)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// FindExpiredPending returns pending PIX orders whose expiration has strictly
// passed, for the server-side sweep.
func (r *repository) FindExpiredPending(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM orders
		WHERE status = 'pending'
		  AND payment_method = 'pix'
		  AND pix_expiration IS NOT NULL
		  AND pix_expiration < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
