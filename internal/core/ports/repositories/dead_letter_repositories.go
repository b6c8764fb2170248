package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
)

// DeadLetterRepositoryFacade persists charge events parked for manual compensation.
type DeadLetterRepositoryFacade interface {
	SaveDeadLetter(ctx context.Context, deadLetter domain.DeadLetter) error
	FindDeadLetterByID(ctx context.Context, id string) (*domain.DeadLetter, error)
	// ListDeadLetters returns records newest first. Replayed records are skipped unless includeReplayed is set.
	ListDeadLetters(ctx context.Context, includeReplayed bool, limit int, nextToken *string) ([]domain.DeadLetter, *string, error)
	MarkReplayed(ctx context.Context, id string, at time.Time) error
}
