package dto

import (
	"time"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RechargeRequest credits an account.
type RechargeRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	BusinessType string          `json:"businessType" binding:"max=64"`
	Description  string          `json:"description" binding:"max=255"`
	Remark       string          `json:"remark" binding:"max=255"`
	EventID      *string         `json:"eventID" binding:"omitempty,max=128"`
}

// ConsumeRequest debits an account synchronously. Capped applies at most the available balance.
type ConsumeRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	BusinessType string          `json:"businessType" binding:"required,max=64"`
	Description  string          `json:"description" binding:"max=255"`
	Remark       string          `json:"remark" binding:"max=255"`
	EventID      *string         `json:"eventID" binding:"omitempty,max=128"`
	Capped       bool            `json:"capped"`
}

// AdjustRequest records a manual correction in either direction.
type AdjustRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	BillType    domain.BillType `json:"billType" binding:"required,oneof=CREDIT DEBIT"`
	Description string          `json:"description" binding:"max=255"`
	Remark      string          `json:"remark" binding:"required,max=255"`
}

// LedgerEntryResponse defines the data returned for a ledger entry.
type LedgerEntryResponse struct {
	EntryID        string             `json:"entryID"`
	UserID         int64              `json:"userID"`
	Amount         decimal.Decimal    `json:"amount"`
	BillType       domain.BillType    `json:"billType"`
	BillingType    domain.BillingType `json:"billingType"`
	BusinessType   string             `json:"businessType"`
	Description    string             `json:"description"`
	Remark         string             `json:"remark"`
	EventID        *string            `json:"eventID,omitempty"`
	OperatorUserID int64              `json:"operatorUserID"`
	BalanceAfter   decimal.Decimal    `json:"balanceAfter"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// ApplyResponse is returned by every synchronous balance mutation.
type ApplyResponse struct {
	Account       AccountResponse     `json:"account"`
	Entry         LedgerEntryResponse `json:"entry"`
	AppliedAmount decimal.Decimal     `json:"appliedAmount"`
}

// ListEntriesParams defines query parameters for listing ledger entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse wraps a page of ledger entries.
type ListEntriesResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}

// ReconciliationResponse reports whether the stored balance matches the ledger.
type ReconciliationResponse struct {
	UserID       int64           `json:"userID"`
	Balance      decimal.Decimal `json:"balance"`
	TotalCredits decimal.Decimal `json:"totalCredits"`
	TotalDebits  decimal.Decimal `json:"totalDebits"`
	EntryCount   int64           `json:"entryCount"`
	Drift        decimal.Decimal `json:"drift"`
	Consistent   bool            `json:"consistent"`
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to LedgerEntryResponse DTO
func ToLedgerEntryResponse(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:        e.EntryID,
		UserID:         e.UserID,
		Amount:         e.Amount,
		BillType:       e.BillType,
		BillingType:    e.BillingType,
		BusinessType:   e.BusinessType,
		Description:    e.Description,
		Remark:         e.Remark,
		EventID:        e.EventID,
		OperatorUserID: e.OperatorUserID,
		BalanceAfter:   e.BalanceAfter,
		CreatedAt:      e.CreatedAt,
	}
}

// ToListEntriesResponse converts a page of entries to its DTO.
func ToListEntriesResponse(entries []domain.LedgerEntry, nextToken *string) ListEntriesResponse {
	res := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		res[i] = ToLedgerEntryResponse(&entries[i])
	}
	return ListEntriesResponse{Entries: res, NextToken: nextToken}
}

// ToApplyResponse converts a domain.ApplyResult to ApplyResponse DTO
func ToApplyResponse(res *domain.ApplyResult) ApplyResponse {
	return ApplyResponse{
		Account:       ToAccountResponse(&res.Account),
		Entry:         ToLedgerEntryResponse(&res.Entry),
		AppliedAmount: res.AppliedAmount,
	}
}

// ToReconciliationResponse converts a domain.ReconciliationReport to its DTO.
func ToReconciliationResponse(r *domain.ReconciliationReport) ReconciliationResponse {
	return ReconciliationResponse{
		UserID:       r.UserID,
		Balance:      r.Balance,
		TotalCredits: r.TotalCredits,
		TotalDebits:  r.TotalDebits,
		EntryCount:   r.EntryCount,
		Drift:        r.Drift(),
		Consistent:   r.Consistent,
	}
}
