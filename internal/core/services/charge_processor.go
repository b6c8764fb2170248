package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/go-playground/validator/v10"
)

const (
	ReasonDuplicate        = "event already applied"
	ReasonNonPositive      = "non-positive amount"
	ReasonInvalid          = "invalid event"
	ReasonPermanent        = "permanent failure"
	ReasonRetriesExhausted = "retries exhausted"
	ReasonTransient        = "transient failure"
	ReasonClaimed          = "event claimed by another worker"
	ReasonEventIDConflict  = "event ID used by a different entry"
)

// ChargeProcessorConfig bounds the retry behaviour of the processor.
type ChargeProcessorConfig struct {
	MaxRetries int
	ClaimTTL   time.Duration
}

type chargeProcessor struct {
	BaseService
	resolver portssvc.AccountResolverSvc
	ledger   portssvc.LedgerSvcFacade
	claims   portsrepo.EventClaimStore
	validate *validator.Validate
	cfg      ChargeProcessorConfig
}

// NewChargeProcessor creates the consumer-side state machine. claims may be nil,
// in which case the unique event ID on ledger entries is the only guard against
// two workers applying the same event.
func NewChargeProcessor(resolver portssvc.AccountResolverSvc, ledger portssvc.LedgerSvcFacade, claims portsrepo.EventClaimStore, cfg ChargeProcessorConfig) portssvc.ChargeProcessorSvc {
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 30 * time.Second
	}
	return &chargeProcessor{
		resolver: resolver,
		ledger:   ledger,
		claims:   claims,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cfg:      cfg,
	}
}

var _ portssvc.ChargeProcessorSvc = (*chargeProcessor)(nil)

// chargeRun tracks the state of one delivery.
type chargeRun struct {
	outcome domain.ChargeOutcome
	logger  *slog.Logger
}

func (r *chargeRun) moveTo(next domain.ChargeState) {
	if !r.outcome.State.CanTransitionTo(next) {
		r.logger.Error("Illegal charge state transition", slog.String("from", string(r.outcome.State)), slog.String("to", string(next)))
	}
	r.outcome.State = next
}

func (r *chargeRun) finish(next domain.ChargeState, reason string, err error) domain.ChargeOutcome {
	r.moveTo(next)
	r.outcome.Reason = reason
	r.outcome.Err = err
	return r.outcome
}

// Process runs RECEIVED -> APPLYING -> APPLIED for one delivery, or ends in
// DISCARDED, FAILED_TRANSIENT or FAILED_TERMINAL. It never changes RetryCount.
func (s *chargeProcessor) Process(ctx context.Context, event domain.ChargeEvent) domain.ChargeOutcome {
	run := &chargeRun{
		outcome: domain.ChargeOutcome{State: domain.ChargeReceived, Event: event},
		logger: s.GetLogger(ctx).With(
			slog.String("event_id", event.EventID),
			slog.Int("retry_count", event.RetryCount),
		),
	}

	if err := s.validate.Struct(event); err != nil {
		return run.finish(domain.ChargeFailedTerminal, ReasonInvalid, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error()))
	}

	if !event.HasPositiveAmount() {
		run.logger.Info("Discarding charge event without positive amount")
		return run.finish(domain.ChargeDiscarded, ReasonNonPositive, nil)
	}

	existing, err := s.ledger.FindEntryByEventID(ctx, event.EventID)
	switch {
	case err == nil && existing.BillType != domain.Debit:
		run.logger.Warn("Charge event ID belongs to a non-debit entry",
			slog.String("entry_id", existing.EntryID),
			slog.String("billing_type", string(existing.BillingType)),
		)
		return run.finish(domain.ChargeFailedTerminal, ReasonEventIDConflict,
			fmt.Errorf("%w: event %s already recorded as %s %s", apperrors.ErrDuplicate, event.EventID, existing.BillType, existing.BillingType))
	case err == nil:
		run.logger.Info("Charge event already applied, discarding", slog.String("entry_id", existing.EntryID))
		run.outcome.Entry = existing
		return run.finish(domain.ChargeDiscarded, ReasonDuplicate, nil)
	case !errors.Is(err, apperrors.ErrNotFound):
		return s.fail(run, fmt.Errorf("dedup check failed: %w", err))
	}

	if s.claims != nil {
		claimed, err := s.claims.Claim(ctx, event.EventID, s.cfg.ClaimTTL)
		switch {
		case err != nil:
			run.logger.Warn("Event claim unavailable, relying on ledger uniqueness", slog.String("error", err.Error()))
		case !claimed:
			return s.fail(run, fmt.Errorf("%w: %s", apperrors.ErrUnavailable, ReasonClaimed))
		default:
			defer func() {
				if err := s.claims.Release(context.WithoutCancel(ctx), event.EventID); err != nil {
					run.logger.Warn("Failed to release event claim", slog.String("error", err.Error()))
				}
			}()
		}
	}

	run.moveTo(domain.ChargeApplying)

	chargeAccount, err := s.resolver.Resolve(ctx, event.BillableUserID())
	if err != nil {
		return s.fail(run, err)
	}
	if event.ChargeUserID > 0 && event.ChargeUserID != chargeAccount.ChargeUserID {
		run.logger.Warn("Charge account changed since the event was published",
			slog.Int64("published_charge_user_id", event.ChargeUserID),
			slog.Int64("resolved_charge_user_id", chargeAccount.ChargeUserID))
	}

	operator := chargeAccount.OperatorUserID
	if event.OperatorUserID > 0 {
		operator = event.OperatorUserID
	}
	billingType := event.BillingType
	if billingType == "" {
		billingType = domain.BillingTypeConsumption
	}
	eventID := event.EventID

	res, err := s.ledger.Apply(ctx, domain.ApplyRequest{
		UserID:         chargeAccount.ChargeUserID,
		Amount:         *event.Amount,
		BillType:       domain.Debit,
		BillingType:    billingType,
		BusinessType:   event.BusinessType,
		Description:    event.Description,
		Remark:         event.Remark,
		OperatorUserID: operator,
		EventID:        &eventID,
		Mode:           domain.ApplyModeStrict,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			run.logger.Info("Charge event applied concurrently, discarding")
			return run.finish(domain.ChargeDiscarded, ReasonDuplicate, nil)
		}
		return s.fail(run, err)
	}

	run.outcome.Entry = &res.Entry
	return run.finish(domain.ChargeApplied, "", nil)
}

// fail classifies err. Transient failures stay retryable until RetryCount reaches MaxRetries.
func (s *chargeProcessor) fail(run *chargeRun, err error) domain.ChargeOutcome {
	if !apperrors.IsRetryable(err) {
		run.logger.Warn("Charge event failed permanently", slog.String("error", err.Error()))
		return run.finish(domain.ChargeFailedTerminal, ReasonPermanent, err)
	}
	if run.outcome.Event.RetryCount >= s.cfg.MaxRetries {
		run.logger.Error("Charge event exhausted retries", slog.Int("max_retries", s.cfg.MaxRetries), slog.String("error", err.Error()))
		run.moveTo(domain.ChargeFailedTransient)
		return run.finish(domain.ChargeFailedTerminal, ReasonRetriesExhausted, err)
	}
	run.logger.Warn("Charge event failed transiently", slog.String("error", err.Error()))
	return run.finish(domain.ChargeFailedTransient, ReasonTransient, err)
}
