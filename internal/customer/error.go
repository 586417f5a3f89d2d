package customer

import "errors"

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("malformed email address")
	ErrInvalidPhone       = errors.New("invalid phone number")
)
