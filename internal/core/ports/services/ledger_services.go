package services

import (
	"context"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	"github.com/SscSPs/billing_ledger/internal/dto"
)

// LedgerWriterSvc defines the balance-mutating operations.
type LedgerWriterSvc interface {
	// Apply mutates the balance and appends one entry atomically.
	Apply(ctx context.Context, req domain.ApplyRequest) (*domain.ApplyResult, error)

	// UpdateStatus changes whether an account may be charged. It does not touch the balance.
	UpdateStatus(ctx context.Context, userID int64, status domain.AccountStatus, operatorUserID int64) (*domain.BillingAccount, error)
}

// LedgerReaderSvc defines read operations over balances and entries.
type LedgerReaderSvc interface {
	GetBalance(ctx context.Context, userID int64) (*domain.BillingAccount, error)
	ListEntries(ctx context.Context, userID int64, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
	FindEntryByEventID(ctx context.Context, eventID string) (*domain.LedgerEntry, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerWriterSvc
	LedgerReaderSvc
}

// ReconciliationSvc checks that balance == sum(credits) - sum(debits).
type ReconciliationSvc interface {
	Reconcile(ctx context.Context, userID int64) (*domain.ReconciliationReport, error)
	// ReconcileAll sweeps every account and returns the inconsistent ones.
	ReconcileAll(ctx context.Context) ([]domain.ReconciliationReport, error)
}

// PriceSvcFacade manages configured prices such as the first-time grant.
type PriceSvcFacade interface {
	GetPrice(ctx context.Context, businessType string) (*domain.Price, error)
	SetPrice(ctx context.Context, businessType string, req dto.SetPriceRequest) (*domain.Price, error)
}
