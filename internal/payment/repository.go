package payment

import (
	"context"
	"database/sql"
)

// Repository persists the append-only payment audit log. Rows are never
// updated or deleted.
type Repository interface {
	AppendLog(ctx context.Context, l *Log) error
	LogsByOrder(ctx context.Context, orderID string) ([]Log, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) AppendLog(ctx context.Context, l *Log) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO payment_logs (order_id, provider, transaction_id, status, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`,
		l.OrderID, l.Provider, l.TransactionID, l.Status, []byte(l.Payload),
	).Scan(&l.ID, &l.CreatedAt)
}

func (r *repository) LogsByOrder(ctx context.Context, orderID string) ([]Log, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, provider, transaction_id, status, payload, created_at
		FROM payment_logs
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []Log
	for rows.Next() {
		var l Log
		var payload []byte
		if err := rows.Scan(
			&l.ID, &l.OrderID, &l.Provider, &l.TransactionID,
			&l.Status, &payload, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		l.Payload = payload
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
