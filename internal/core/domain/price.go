package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price is a configured amount keyed by business-type tag, e.g. the first-time grant.
type Price struct {
	BusinessType  string          `json:"businessType"`
	Amount        decimal.Decimal `json:"amount"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}
