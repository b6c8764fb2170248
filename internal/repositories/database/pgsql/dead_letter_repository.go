package pgsql

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/billing_ledger/internal/models"
	"github.com/SscSPs/billing_ledger/internal/utils/mapping"
	"github.com/SscSPs/billing_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const deadLetterColumns = `id, event_id, payload, reason, last_error, retry_count, created_at, replayed_at`

type PgxDeadLetterRepository struct {
	BaseRepository
}

func newPgxDeadLetterRepository(pool *pgxpool.Pool) portsrepo.DeadLetterRepositoryFacade {
	return &PgxDeadLetterRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.DeadLetterRepositoryFacade = (*PgxDeadLetterRepository)(nil)

func scanDeadLetter(row pgx.Row) (domain.DeadLetter, error) {
	var m models.DeadLetter
	if err := row.Scan(
		&m.ID,
		&m.EventID,
		&m.Payload,
		&m.Reason,
		&m.LastError,
		&m.RetryCount,
		&m.CreatedAt,
		&m.ReplayedAt,
	); err != nil {
		return domain.DeadLetter{}, err
	}
	return mapping.ToDomainDeadLetter(m)
}

func (r *PgxDeadLetterRepository) SaveDeadLetter(ctx context.Context, deadLetter domain.DeadLetter) error {
	m, err := mapping.ToModelDeadLetter(deadLetter)
	if err != nil {
		return err
	}
	query := `INSERT INTO charge_dead_letters (` + deadLetterColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	_, err = r.Pool.Exec(ctx, query,
		m.ID,
		m.EventID,
		m.Payload,
		m.Reason,
		m.LastError,
		m.RetryCount,
		m.CreatedAt,
		m.ReplayedAt,
	)
	if err != nil {
		return mapPgError(err, fmt.Sprintf("failed to save dead letter %s", m.ID))
	}
	return nil
}

func (r *PgxDeadLetterRepository) FindDeadLetterByID(ctx context.Context, id string) (*domain.DeadLetter, error) {
	query := `SELECT ` + deadLetterColumns + ` FROM charge_dead_letters WHERE id = $1;`

	dl, err := scanDeadLetter(r.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("failed to find dead letter %s", id))
	}
	return &dl, nil
}

// ListDeadLetters retrieves parked events newest first using token-based pagination.
func (r *PgxDeadLetterRepository) ListDeadLetters(ctx context.Context, includeReplayed bool, limit int, nextToken *string) ([]domain.DeadLetter, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	args := []any{}
	query := `SELECT ` + deadLetterColumns + ` FROM charge_dead_letters WHERE TRUE`
	if !includeReplayed {
		query += ` AND replayed_at IS NULL`
	}
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %w", apperrors.ErrValidation, decodeErr)
		}
		args = append(args, lastCreatedAt, lastID)
		query += ` AND (created_at, id) < ($1, $2)`
	}
	args = append(args, fetchLimit)
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, mapPgError(err, "failed to list dead letters")
	}
	defer rows.Close()

	results := make([]domain.DeadLetter, 0, fetchLimit)
	for rows.Next() {
		dl, err := scanDeadLetter(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan dead letter row: %w", err)
		}
		results = append(results, dl)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapPgError(err, "error iterating dead letter rows")
	}

	var nextTokenVal *string
	if len(results) > limit {
		results = results[:limit]
		last := results[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.ID)
		nextTokenVal = &token
	}
	return results, nextTokenVal, nil
}

func (r *PgxDeadLetterRepository) MarkReplayed(ctx context.Context, id string, at time.Time) error {
	tag, err := r.Pool.Exec(ctx, `UPDATE charge_dead_letters SET replayed_at = $2 WHERE id = $1;`, id, at)
	if err != nil {
		return mapPgError(err, fmt.Sprintf("failed to mark dead letter %s replayed", id))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: dead letter %s", apperrors.ErrNotFound, id)
	}
	return nil
}
