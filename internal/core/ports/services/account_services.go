package services

import (
	"context"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	"github.com/SscSPs/billing_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// AccountResolverSvc decides which account pays for a request.
type AccountResolverSvc interface {
	// Resolve returns the charge account for requestUserID. It has no side effects.
	Resolve(ctx context.Context, requestUserID int64) (*domain.ChargeAccount, error)
}

// BalanceGuardSvc is the synchronous pre-flight check run before expensive work.
type BalanceGuardSvc interface {
	// EnsureSufficient never locks or mutates the balance. The result is advisory:
	// the later debit remains the authoritative check.
	EnsureSufficient(ctx context.Context, requestUserID int64, minimumAmount *decimal.Decimal, scene string) (*domain.ChargeAccount, error)
}

// LifecycleHookSvc reacts to the creation of a primary billable account.
type LifecycleHookSvc interface {
	OnAccountCreated(ctx context.Context, userID int64) (*domain.ProvisionResult, error)
}

// UserSvc maintains the local copy of identity profiles used by the resolver.
type UserSvc interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	SyncUser(ctx context.Context, userID int64, req dto.SyncUserRequest) (*domain.User, error)
}
