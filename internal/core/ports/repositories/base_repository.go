package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager opens the unit of work in which a balance row is locked,
// rewritten and its ledger entry appended. Rollback after Commit is a no-op.
type TransactionManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Commit(ctx context.Context, tx pgx.Tx) error
	Rollback(ctx context.Context, tx pgx.Tx) error
}
