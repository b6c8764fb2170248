package dto

import (
	"time"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ProvisionAccountRequest is sent when the identity collaborator creates a primary account.
type ProvisionAccountRequest struct {
	UserID int64 `json:"userID" binding:"required,gt=0"`
}

// UpdateAccountStatusRequest freezes or unfreezes a billing account.
type UpdateAccountStatusRequest struct {
	Status domain.AccountStatus `json:"status" binding:"required,oneof=NORMAL FROZEN ABNORMAL"`
}

// EnsureSufficientRequest is the body of a balance pre-check.
type EnsureSufficientRequest struct {
	UserID        int64            `json:"userID" binding:"required,gt=0"`
	MinimumAmount *decimal.Decimal `json:"minimumAmount"`
	Scene         string           `json:"scene" binding:"max=64"`
}

// AccountResponse defines the data returned for a billing account.
type AccountResponse struct {
	UserID        int64                `json:"userID"`
	Balance       decimal.Decimal      `json:"balance"`
	Status        domain.AccountStatus `json:"status"`
	CreatedAt     time.Time            `json:"createdAt"`
	LastUpdatedAt time.Time            `json:"lastUpdatedAt"`
}

// ChargeAccountResponse mirrors domain.ChargeAccount.
type ChargeAccountResponse struct {
	ChargeUserID   int64 `json:"chargeUserID"`
	OperatorUserID int64 `json:"operatorUserID"`
	IsMainAccount  bool  `json:"isMainAccount"`
}

// ProvisionAccountResponse reports the provisioned account and the optional first-time grant.
type ProvisionAccountResponse struct {
	Account    AccountResponse      `json:"account"`
	GrantEntry *LedgerEntryResponse `json:"grantEntry,omitempty"`
}

// ToAccountResponse converts a domain.BillingAccount to AccountResponse DTO
func ToAccountResponse(acc *domain.BillingAccount) AccountResponse {
	return AccountResponse{
		UserID:        acc.UserID,
		Balance:       acc.Balance,
		Status:        acc.Status,
		CreatedAt:     acc.CreatedAt,
		LastUpdatedAt: acc.LastUpdatedAt,
	}
}

// ToChargeAccountResponse converts a domain.ChargeAccount to ChargeAccountResponse DTO
func ToChargeAccountResponse(ca *domain.ChargeAccount) ChargeAccountResponse {
	return ChargeAccountResponse{
		ChargeUserID:   ca.ChargeUserID,
		OperatorUserID: ca.OperatorUserID,
		IsMainAccount:  ca.IsMainAccount,
	}
}

// ToProvisionAccountResponse converts a domain.ProvisionResult to its DTO.
func ToProvisionAccountResponse(res *domain.ProvisionResult) ProvisionAccountResponse {
	out := ProvisionAccountResponse{Account: ToAccountResponse(&res.Account)}
	if res.GrantEntry != nil {
		entry := ToLedgerEntryResponse(res.GrantEntry)
		out.GrantEntry = &entry
	}
	return out
}

// SyncUserRequest is pushed by the identity collaborator whenever a profile changes.
type SyncUserRequest struct {
	RoleKey      string `json:"roleKey" binding:"required,max=64"`
	ParentUserID *int64 `json:"parentUserID" binding:"omitempty,gt=0"`
}

// UserResponse defines the identity profile data returned by the API.
type UserResponse struct {
	UserID       int64  `json:"userID"`
	RoleKey      string `json:"roleKey"`
	IdentityKind string `json:"identityKind"`
	ParentUserID *int64 `json:"parentUserID,omitempty"`
}

// ToUserResponse converts a domain.User to UserResponse DTO
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:       user.UserID,
		RoleKey:      user.RoleKey,
		IdentityKind: domain.IdentityKindForRole(user.RoleKey).String(),
		ParentUserID: user.ParentUserID,
	}
}
