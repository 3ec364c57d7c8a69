package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a fragrance in the catalogue.
type Product struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Category  string          `json:"category" db:"category"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
