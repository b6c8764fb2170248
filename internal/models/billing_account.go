package models

import "github.com/shopspring/decimal"

// BillingAccount is a row of billing_accounts.
type BillingAccount struct {
	UserID  int64           `db:"user_id"`
	Balance decimal.Decimal `db:"balance"`
	Status  string          `db:"status"`
	AuditFields
}
