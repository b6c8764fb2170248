package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is a row of ledger_entries. Rows are append-only.
type LedgerEntry struct {
	EntryID        string          `db:"entry_id"`
	UserID         int64           `db:"user_id"`
	Amount         decimal.Decimal `db:"amount"`
	BillType       string          `db:"bill_type"`
	BillingType    string          `db:"billing_type"`
	BusinessType   string          `db:"business_type"`
	Description    string          `db:"description"`
	Remark         string          `db:"remark"`
	EventID        sql.NullString  `db:"event_id"` // Unique when set
	OperatorUserID int64           `db:"operator_user_id"`
	BalanceAfter   decimal.Decimal `db:"balance_after"`
	CreatedAt      time.Time       `db:"created_at"`
}
