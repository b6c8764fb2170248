package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/dto"
	"github.com/google/uuid"
)

type deadLetterService struct {
	BaseService
	repo      portsrepo.DeadLetterRepositoryFacade
	publisher portssvc.ChargePublisherSvc
	now       func() time.Time
}

// NewDeadLetterService creates the service that parks and replays failed charge events.
func NewDeadLetterService(repo portsrepo.DeadLetterRepositoryFacade, publisher portssvc.ChargePublisherSvc) portssvc.DeadLetterSvcFacade {
	return &deadLetterService{
		repo:      repo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ portssvc.DeadLetterSvcFacade = (*deadLetterService)(nil)

func (s *deadLetterService) Record(ctx context.Context, outcome domain.ChargeOutcome) (*domain.DeadLetter, error) {
	if outcome.State != domain.ChargeFailedTerminal {
		return nil, fmt.Errorf("%w: only terminal failures are dead-lettered, got %s", apperrors.ErrValidation, outcome.State)
	}

	dl := domain.DeadLetter{
		ID:         uuid.NewString(),
		EventID:    outcome.Event.EventID,
		Event:      outcome.Event,
		Reason:     outcome.Reason,
		RetryCount: outcome.Event.RetryCount,
		CreatedAt:  s.now(),
	}
	if outcome.Err != nil {
		dl.LastError = outcome.Err.Error()
	}

	if err := s.repo.SaveDeadLetter(ctx, dl); err != nil {
		return nil, fmt.Errorf("failed to save dead letter for event %s: %w", dl.EventID, err)
	}
	s.LogWarn(ctx, outcome.Err, "Charge event dead-lettered",
		slog.String("dead_letter_id", dl.ID),
		slog.String("event_id", dl.EventID),
		slog.String("reason", dl.Reason))
	return &dl, nil
}

func (s *deadLetterService) ListDeadLetters(ctx context.Context, params dto.ListDeadLettersParams) (*dto.ListDeadLettersResponse, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	}
	items, nextToken, err := s.repo.ListDeadLetters(ctx, params.IncludeReplayed, params.Limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	resp := dto.ToListDeadLettersResponse(items, nextToken)
	return &resp, nil
}

// Replay republishes a parked event with RetryCount reset. The ledger's event ID
// dedup keeps a replay of an already applied event from charging twice.
func (s *deadLetterService) Replay(ctx context.Context, id string) (*domain.DeadLetter, error) {
	dl, err := s.repo.FindDeadLetterByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find dead letter %s: %w", id, err)
	}
	if dl.ReplayedAt != nil {
		return nil, fmt.Errorf("%w: dead letter %s was already replayed", apperrors.ErrDuplicate, id)
	}

	event := dl.Event
	event.RetryCount = 0
	published, err := s.publisher.Publish(ctx, event)
	if err != nil {
		return nil, err
	}
	if !published {
		return nil, fmt.Errorf("%w: charge event %s was not published (billing disabled or no amount)", apperrors.ErrConfiguration, dl.EventID)
	}

	now := s.now()
	if err := s.repo.MarkReplayed(ctx, id, now); err != nil {
		return nil, fmt.Errorf("failed to mark dead letter %s replayed: %w", id, err)
	}
	dl.ReplayedAt = &now
	s.LogInfo(ctx, "Dead letter replayed", slog.String("dead_letter_id", id), slog.String("event_id", dl.EventID))
	return dl, nil
}
