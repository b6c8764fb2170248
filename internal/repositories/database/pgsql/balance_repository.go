package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/billing_ledger/internal/models"
	"github.com/SscSPs/billing_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const balanceColumns = `user_id, balance, status, created_at, created_by, last_updated_at, last_updated_by, version`

type PgxBalanceRepository struct {
	BaseRepository
}

// newPgxBalanceRepository creates a new repository for billing account balances.
func newPgxBalanceRepository(pool *pgxpool.Pool) portsrepo.BalanceRepositoryWithTx {
	return &PgxBalanceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxBalanceRepository implements portsrepo.BalanceRepositoryWithTx
var _ portsrepo.BalanceRepositoryWithTx = (*PgxBalanceRepository)(nil)

func scanBalance(row pgx.Row) (*domain.BillingAccount, error) {
	var m models.BillingAccount
	if err := row.Scan(
		&m.UserID,
		&m.Balance,
		&m.Status,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
		&m.Version,
	); err != nil {
		return nil, err
	}
	acc := mapping.ToDomainBillingAccount(m)
	return &acc, nil
}

// FindBalanceByUserID retrieves the balance record of a billable user.
func (r *PgxBalanceRepository) FindBalanceByUserID(ctx context.Context, userID int64) (*domain.BillingAccount, error) {
	query := `SELECT ` + balanceColumns + ` FROM billing_accounts WHERE user_id = $1;`

	acc, err := scanBalance(r.Pool.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("failed to find billing account for user %d", userID))
	}
	return acc, nil
}

func (r *PgxBalanceRepository) ListBalanceUserIDs(ctx context.Context, afterUserID int64, limit int) ([]int64, error) {
	query := `SELECT user_id FROM billing_accounts WHERE user_id > $1 ORDER BY user_id LIMIT $2;`

	rows, err := r.Pool.Query(ctx, query, afterUserID, limit)
	if err != nil {
		return nil, mapPgError(err, "failed to list billing accounts")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, mapPgError(err, "failed to scan billing account IDs")
	}
	return ids, nil
}

// CreateBalance inserts a new balance record.
func (r *PgxBalanceRepository) CreateBalance(ctx context.Context, account domain.BillingAccount) error {
	m := mapping.ToModelBillingAccount(account)
	query := `
		INSERT INTO billing_accounts (` + balanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.UserID,
		m.Balance,
		m.Status,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.Version,
	)
	if err != nil {
		return mapPgError(err, fmt.Sprintf("failed to create billing account for user %d", m.UserID))
	}
	return nil
}

func (r *PgxBalanceRepository) UpdateBalanceStatus(ctx context.Context, userID int64, status domain.AccountStatus, operatorUserID int64, now time.Time) error {
	query := `
		UPDATE billing_accounts
		SET status = $2, last_updated_at = $3, last_updated_by = $4, version = version + 1
		WHERE user_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, userID, string(status), now, operatorUserID)
	if err != nil {
		return mapPgError(err, fmt.Sprintf("failed to update status of billing account %d", userID))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: billing account for user %d", apperrors.ErrNotFound, userID)
	}
	return nil
}

// FindBalanceForUpdate locks the balance row until tx ends.
func (r *PgxBalanceRepository) FindBalanceForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*domain.BillingAccount, error) {
	query := `SELECT ` + balanceColumns + ` FROM billing_accounts WHERE user_id = $1 FOR UPDATE;`

	acc, err := scanBalance(tx.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("failed to lock billing account for user %d", userID))
	}
	return acc, nil
}

func (r *PgxBalanceRepository) UpdateBalanceInTx(ctx context.Context, tx pgx.Tx, userID int64, newBalance decimal.Decimal, operatorUserID int64, now time.Time) error {
	query := `
		UPDATE billing_accounts
		SET balance = $2, last_updated_at = $3, last_updated_by = $4, version = version + 1
		WHERE user_id = $1;
	`
	tag, err := tx.Exec(ctx, query, userID, newBalance, now, operatorUserID)
	if err != nil {
		return mapPgError(err, fmt.Sprintf("failed to update balance of billing account %d", userID))
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: billing account for user %d", apperrors.ErrNotFound, userID)
	}
	return nil
}
