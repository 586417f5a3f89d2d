package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
	Available   bool
	CreatedAt   time.Time
}
