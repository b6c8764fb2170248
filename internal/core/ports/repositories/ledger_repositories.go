package repositories

import (
	"context"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
)

// MutationFunc computes the entry to append from the locked account state.
// entry.BalanceAfter becomes the stored balance. Returning an error aborts the
// unit and leaves both the balance and the ledger untouched.
type MutationFunc func(current domain.BillingAccount) (domain.LedgerEntry, error)

// LedgerReader defines read operations for ledger entries
type LedgerReader interface {
	// FindEntryByEventID returns the entry tagged with eventID, or apperrors.ErrNotFound.
	FindEntryByEventID(ctx context.Context, eventID string) (*domain.LedgerEntry, error)

	// ListEntriesByUserID returns entries newest first using token-based pagination.
	ListEntriesByUserID(ctx context.Context, userID int64, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// LoadReconciliation reads the stored balance and the credit/debit totals of an account
	// from one consistent snapshot. Consistent is left for the caller to compute.
	LoadReconciliation(ctx context.Context, userID int64) (*domain.ReconciliationReport, error)
}

// LedgerWriter defines the single mutating operation of the ledger.
type LedgerWriter interface {
	// ApplyMutation locks the account, runs mutate, stores the new balance and appends the
	// entry as one atomic unit. Calls for the same account serialise; calls for different
	// accounts do not block each other. A second entry with an already stored EventID
	// fails with apperrors.ErrDuplicate.
	ApplyMutation(ctx context.Context, userID int64, mutate MutationFunc) (*domain.BillingAccount, *domain.LedgerEntry, error)
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
