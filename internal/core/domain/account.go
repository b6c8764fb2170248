package domain

import "github.com/shopspring/decimal"

// AccountStatus describes whether a billing account may be charged.
type AccountStatus string

const (
	AccountStatusNormal   AccountStatus = "NORMAL"
	AccountStatusFrozen   AccountStatus = "FROZEN"
	AccountStatusAbnormal AccountStatus = "ABNORMAL"
)

// BillingAccount is the single balance record held for a billable user.
// It is created once by the lifecycle hook and mutated only through the ledger.
type BillingAccount struct {
	UserID  int64           `json:"userID"`
	Balance decimal.Decimal `json:"balance"`
	Status  AccountStatus   `json:"status"`
	AuditFields
}

// IsUsable reports whether the account accepts debits and passes balance checks.
func (a BillingAccount) IsUsable() bool {
	return a.Status == AccountStatusNormal
}

// ChargeAccount is the outcome of resolving which account pays for a request.
// OperatorUserID is the identity that triggered the action; it differs from
// ChargeUserID when a sub-account acts on behalf of its primary account.
type ChargeAccount struct {
	ChargeUserID   int64 `json:"chargeUserID"`
	OperatorUserID int64 `json:"operatorUserID"`
	IsMainAccount  bool  `json:"isMainAccount"`
}

// AccountCreatedEvent is published by the identity collaborator after a primary account is registered.
type AccountCreatedEvent struct {
	UserID int64 `json:"userId"`
}
