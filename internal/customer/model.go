package customer

import "time"

type Customer struct {
	ID           uint
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Address      string
	Number       string
	Neighborhood string
	Complement   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the editable subset of a customer record.
type Profile struct {
	Name         string
	Phone        string
	Address      string
	Number       string
	Neighborhood string
	Complement   string
}
