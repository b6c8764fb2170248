package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillType is the direction of a balance mutation.
type BillType string

const (
	Credit BillType = "CREDIT"
	Debit  BillType = "DEBIT"
)

// BillingType categorises why a mutation happened.
type BillingType string

const (
	BillingTypeRecharge       BillingType = "RECHARGE"
	BillingTypeConsumption    BillingType = "CONSUMPTION"
	BillingTypeAdjustment     BillingType = "ADJUSTMENT"
	BillingTypeFirstTimeGrant BillingType = "FIRST_TIME_GRANT"
)

// ApplyMode selects how a debit behaves when the balance cannot cover it.
type ApplyMode string

const (
	// ApplyModeStrict rejects a debit larger than the balance.
	ApplyModeStrict ApplyMode = "STRICT"
	// ApplyModeCapped applies min(amount, balance) and reports the applied amount.
	ApplyModeCapped ApplyMode = "CAPPED"
)

// LedgerEntry is the immutable record of one balance mutation. Amount is always positive;
// BillType carries the direction.
type LedgerEntry struct {
	EntryID        string          `json:"entryID"`
	UserID         int64           `json:"userID"`
	Amount         decimal.Decimal `json:"amount"`
	BillType       BillType        `json:"billType"`
	BillingType    BillingType     `json:"billingType"`
	BusinessType   string          `json:"businessType"`
	Description    string          `json:"description"`
	Remark         string          `json:"remark"`
	EventID        *string         `json:"eventID,omitempty"`
	OperatorUserID int64           `json:"operatorUserID"`
	BalanceAfter   decimal.Decimal `json:"balanceAfter"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// SignedAmount returns the entry's effect on the balance.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	if e.BillType == Debit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// ReconciliationReport compares a stored balance with the sum of its ledger entries.
type ReconciliationReport struct {
	UserID       int64           `json:"userID"`
	Balance      decimal.Decimal `json:"balance"`
	TotalCredits decimal.Decimal `json:"totalCredits"`
	TotalDebits  decimal.Decimal `json:"totalDebits"`
	EntryCount   int64           `json:"entryCount"`
	Consistent   bool            `json:"consistent"`
}

// Drift is the difference between the stored balance and the ledger sum.
func (r ReconciliationReport) Drift() decimal.Decimal {
	return r.Balance.Sub(r.TotalCredits.Sub(r.TotalDebits))
}

// ApplyRequest describes one balance mutation to perform through the ledger.
type ApplyRequest struct {
	UserID         int64
	Amount         decimal.Decimal
	BillType       BillType
	BillingType    BillingType
	BusinessType   string
	Description    string
	Remark         string
	OperatorUserID int64
	EventID        *string
	Mode           ApplyMode
}

// ApplyResult is the post-mutation snapshot, the appended entry and the amount actually applied.
type ApplyResult struct {
	Account       BillingAccount
	Entry         LedgerEntry
	AppliedAmount decimal.Decimal
}

// ProvisionResult reports what the lifecycle hook did for a new account.
type ProvisionResult struct {
	Account    BillingAccount
	GrantEntry *LedgerEntry
}
