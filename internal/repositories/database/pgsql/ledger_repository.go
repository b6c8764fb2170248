package pgsql

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/billing_ledger/internal/models"
	"github.com/SscSPs/billing_ledger/internal/utils/mapping"
	"github.com/SscSPs/billing_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `entry_id, user_id, amount, bill_type, billing_type, business_type, description, remark, event_id, operator_user_id, balance_after, created_at`

type PgxLedgerRepository struct {
	BaseRepository
	balanceRepo portsrepo.BalanceRepositoryWithTx
}

// newPgxLedgerRepository creates a new repository for ledger entries.
func newPgxLedgerRepository(pool *pgxpool.Pool, balanceRepo portsrepo.BalanceRepositoryWithTx) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
		balanceRepo:    balanceRepo,
	}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

func scanEntry(row pgx.Row) (models.LedgerEntry, error) {
	var m models.LedgerEntry
	err := row.Scan(
		&m.EntryID,
		&m.UserID,
		&m.Amount,
		&m.BillType,
		&m.BillingType,
		&m.BusinessType,
		&m.Description,
		&m.Remark,
		&m.EventID,
		&m.OperatorUserID,
		&m.BalanceAfter,
		&m.CreatedAt,
	)
	return m, err
}

// ApplyMutation locks the balance row, runs mutate, writes the new balance and
// appends the entry inside one database transaction.
func (r *PgxLedgerRepository) ApplyMutation(ctx context.Context, userID int64, mutate portsrepo.MutationFunc) (*domain.BillingAccount, *domain.LedgerEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	// Ignored once the transaction is committed
	defer r.Rollback(ctx, tx)

	// 1. Lock the balance row
	current, err := r.balanceRepo.FindBalanceForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, nil, err
	}

	// 2. Compute the entry from the locked state
	entry, err := mutate(*current)
	if err != nil {
		return nil, nil, err
	}
	entry.UserID = userID

	// 3. Write the new balance
	if err := r.balanceRepo.UpdateBalanceInTx(ctx, tx, userID, entry.BalanceAfter, entry.OperatorUserID, entry.CreatedAt); err != nil {
		return nil, nil, err
	}

	// 4. Append the entry; the unique event_id index rejects a second application
	m := mapping.ToModelLedgerEntry(entry)
	insert := `INSERT INTO ledger_entries (` + entryColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`
	_, err = tx.Exec(ctx, insert,
		m.EntryID,
		m.UserID,
		m.Amount,
		m.BillType,
		m.BillingType,
		m.BusinessType,
		m.Description,
		m.Remark,
		m.EventID,
		m.OperatorUserID,
		m.BalanceAfter,
		m.CreatedAt,
	)
	if err != nil {
		return nil, nil, mapPgError(err, fmt.Sprintf("failed to insert ledger entry %s", m.EntryID))
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, nil, err
	}

	account := *current
	account.Balance = entry.BalanceAfter
	account.LastUpdatedAt = entry.CreatedAt
	account.LastUpdatedBy = entry.OperatorUserID
	account.Version++
	return &account, &entry, nil
}

func (r *PgxLedgerRepository) FindEntryByEventID(ctx context.Context, eventID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE event_id = $1;`

	m, err := scanEntry(r.Pool.QueryRow(ctx, query, eventID))
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("failed to find ledger entry for event %s", eventID))
	}
	entry := mapping.ToDomainLedgerEntry(m)
	return &entry, nil
}

// ListEntriesByUserID retrieves entries newest first using token-based pagination.
// The token encodes the (created_at, entry_id) of the last row returned.
func (r *PgxLedgerRepository) ListEntriesByUserID(ctx context.Context, userID int64, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to know whether another page exists
	fetchLimit := limit + 1

	args := []any{userID}
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE user_id = $1`
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastEntryID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %w", apperrors.ErrValidation, decodeErr)
		}
		args = append(args, lastCreatedAt, lastEntryID)
		query += ` AND (created_at, entry_id) < ($2, $3)`
	}
	args = append(args, fetchLimit)
	query += ` ORDER BY created_at DESC, entry_id DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, mapPgError(err, fmt.Sprintf("failed to list ledger entries for user %d", userID))
	}
	defer rows.Close()

	results := make([]models.LedgerEntry, 0, fetchLimit)
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan ledger entry row: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapPgError(err, "error iterating ledger entry rows")
	}

	var nextTokenVal *string
	if len(results) > limit {
		results = results[:limit]
		last := results[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.EntryID)
		nextTokenVal = &token
	}

	return mapping.ToDomainLedgerEntrySlice(results), nextTokenVal, nil
}

// LoadReconciliation reads balance and totals in a single statement so both
// come from the same snapshot.
func (r *PgxLedgerRepository) LoadReconciliation(ctx context.Context, userID int64) (*domain.ReconciliationReport, error) {
	query := `
		SELECT b.balance,
		       COALESCE(SUM(e.amount) FILTER (WHERE e.bill_type = 'CREDIT'), 0),
		       COALESCE(SUM(e.amount) FILTER (WHERE e.bill_type = 'DEBIT'), 0),
		       COUNT(e.entry_id)
		FROM billing_accounts b
		LEFT JOIN ledger_entries e ON e.user_id = b.user_id
		WHERE b.user_id = $1
		GROUP BY b.user_id, b.balance;
	`
	report := &domain.ReconciliationReport{UserID: userID}
	var count int64
	err := r.Pool.QueryRow(ctx, query, userID).Scan(
		&report.Balance,
		&report.TotalCredits,
		&report.TotalDebits,
		&count,
	)
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("failed to load reconciliation for user %d", userID))
	}
	report.EntryCount = count
	return report, nil
}
