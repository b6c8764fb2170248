package services

import (
	"context"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	"github.com/SscSPs/billing_ledger/internal/dto"
)

// ChargePublisherSvc emits charge events towards the pipeline.
type ChargePublisherSvc interface {
	// Publish returns false without error when the event is skipped (billing disabled or
	// non-positive amount). Publish errors are logged and returned, never retried.
	Publish(ctx context.Context, event domain.ChargeEvent) (bool, error)
}

// ChargeProcessorSvc runs the per-event state machine for one delivery.
type ChargeProcessorSvc interface {
	Process(ctx context.Context, event domain.ChargeEvent) domain.ChargeOutcome
}

// DeadLetterSvcFacade exposes parked events for manual compensation.
type DeadLetterSvcFacade interface {
	Record(ctx context.Context, outcome domain.ChargeOutcome) (*domain.DeadLetter, error)
	ListDeadLetters(ctx context.Context, params dto.ListDeadLettersParams) (*dto.ListDeadLettersResponse, error)
	// Replay republishes the parked event with its retry count reset.
	Replay(ctx context.Context, id string) (*domain.DeadLetter, error)
}
