package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Price struct {
	BusinessType  string          `db:"business_type"`
	Amount        decimal.Decimal `db:"amount"`
	LastUpdatedAt time.Time       `db:"last_updated_at"`
}
