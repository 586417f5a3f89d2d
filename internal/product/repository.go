package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var ErrProductNotFound = errors.New("product not found")

type Repository interface {
	List(ctx context.Context, category string) ([]Product, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, category string) ([]Product, error) {
	query := `
		SELECT id, name, description, price, category, image_url, available, created_at
		FROM products
		WHERE available = true
	`
	args := []any{}
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY category, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price,
			&p.Category, &p.ImageURL, &p.Available, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetByIDs loads the products referenced by a checkout so the order can
// snapshot their current prices.
func (r *repository) GetByIDs(ctx context.Context, ids []uint) (map[uint]Product, error) {
	if len(ids) == 0 {
		return map[uint]Product{}, nil
	}

	int64IDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		int64IDs = append(int64IDs, int64(id))
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, category, image_url, available, created_at
		FROM products
		WHERE id = ANY($1)
	`, pq.Array(int64IDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[uint]Product, len(ids))
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price,
			&p.Category, &p.ImageURL, &p.Available, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		found[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, ErrProductNotFound
		}
	}
	return found, nil
}
