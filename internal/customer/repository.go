package customer

import (
	"context"
	"database/sql"
)

type Repository interface {
	Create(ctx context.Context, email, passwordHash string) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	GetByID(ctx context.Context, id uint) (*Customer, error)
	UpdateProfile(ctx context.Context, id uint, p Profile) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, email, passwordHash string) (*Customer, error) {
	var c Customer
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, created_at
	`, email, passwordHash).Scan(&c.ID, &c.Email, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.PasswordHash = passwordHash
	return &c, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, phone, address, number, neighborhood, complement, created_at
		FROM customers WHERE email = $1
	`, email)

	return scanCustomer(row)
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Customer, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, phone, address, number, neighborhood, complement, created_at
		FROM customers WHERE id = $1
	`, id)

	return scanCustomer(row)
}

func (r *repository) UpdateProfile(ctx context.Context, id uint, p Profile) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE customers
		SET name = $1, phone = $2, address = $3, number = $4,
		    neighborhood = $5, complement = $6, updated_at = now()
		WHERE id = $7
	`, p.Name, p.Phone, p.Address, p.Number, p.Neighborhood, p.Complement, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func scanCustomer(row *sql.Row) (*Customer, error) {
	var c Customer
	var name, phone, address, number, neighborhood, complement sql.NullString

	err := row.Scan(
		&c.ID, &c.Email, &c.PasswordHash,
		&name, &phone, &address, &number, &neighborhood, &complement,
		&c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	c.Name = name.String
	c.Phone = phone.String
	c.Address = address.String
	c.Number = number.String
	c.Neighborhood = neighborhood.String
	c.Complement = complement.String
	return &c, nil
}
