package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// BalanceReader defines read operations for billing account balances.
// Reads are advisory: nothing is locked.
type BalanceReader interface {
	// FindBalanceByUserID retrieves the balance record of a billable user.
	FindBalanceByUserID(ctx context.Context, userID int64) (*domain.BillingAccount, error)

	// ListBalanceUserIDs returns user IDs greater than afterUserID in ascending order.
	ListBalanceUserIDs(ctx context.Context, afterUserID int64, limit int) ([]int64, error)
}

// BalanceWriter defines write operations that do not move money.
type BalanceWriter interface {
	// CreateBalance provisions a balance record. It fails with apperrors.ErrDuplicate if one exists.
	CreateBalance(ctx context.Context, account domain.BillingAccount) error

	// UpdateBalanceStatus changes the status of an existing record.
	UpdateBalanceStatus(ctx context.Context, userID int64, status domain.AccountStatus, operatorUserID int64, now time.Time) error
}

// BalanceTransactionSupport defines operations used inside the ledger's database transaction.
type BalanceTransactionSupport interface {
	// FindBalanceForUpdate selects the balance row and locks it until the transaction ends.
	FindBalanceForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*domain.BillingAccount, error)

	// UpdateBalanceInTx writes a new balance within the given transaction.
	UpdateBalanceInTx(ctx context.Context, tx pgx.Tx, userID int64, newBalance decimal.Decimal, operatorUserID int64, now time.Time) error
}

// BalanceRepositoryFacade combines the balance interfaces needed by services.
type BalanceRepositoryFacade interface {
	BalanceReader
	BalanceWriter
}

// BalanceRepositoryWithTx extends BalanceRepositoryFacade with transaction capabilities
type BalanceRepositoryWithTx interface {
	BalanceRepositoryFacade
	BalanceTransactionSupport
	TransactionManager
}
