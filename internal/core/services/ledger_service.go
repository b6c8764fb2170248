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
	"github.com/SscSPs/billing_ledger/internal/dto"
	"github.com/SscSPs/billing_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ledgerService is the only component that moves money.
type ledgerService struct {
	BaseService
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	balanceRepo portsrepo.BalanceRepositoryFacade
	now         func() time.Time
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade, balanceRepo portsrepo.BalanceRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo:  ledgerRepo,
		balanceRepo: balanceRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func validateApplyRequest(req domain.ApplyRequest) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: user ID must be positive, got %d", apperrors.ErrValidation, req.UserID)
	}
	if !req.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero, got %s", apperrors.ErrValidation, req.Amount.String())
	}
	if req.BillType != domain.Credit && req.BillType != domain.Debit {
		return fmt.Errorf("%w: bill type must be CREDIT or DEBIT, got %q", apperrors.ErrValidation, req.BillType)
	}
	if req.BillingType == "" {
		return fmt.Errorf("%w: billing type is required", apperrors.ErrValidation)
	}
	if req.Mode == domain.ApplyModeCapped && req.BillType != domain.Debit {
		return fmt.Errorf("%w: capped mode only applies to debits", apperrors.ErrValidation)
	}
	if req.EventID != nil && *req.EventID == "" {
		return fmt.Errorf("%w: event ID must not be empty when set", apperrors.ErrValidation)
	}
	return nil
}

// Apply performs one atomic balance mutation. Credits are accepted on any account;
// debits require a NORMAL account. A zero or negative amount is rejected with
// apperrors.ErrValidation in either direction rather than treated as a no-op, so
// callers that may hold a zero amount (the first-time grant, the charge pipeline)
// skip the call themselves.
func (s *ledgerService) Apply(ctx context.Context, req domain.ApplyRequest) (*domain.ApplyResult, error) {
	if err := validateApplyRequest(req); err != nil {
		return nil, err
	}
	if req.Mode == "" {
		req.Mode = domain.ApplyModeStrict
	}
	if req.OperatorUserID <= 0 {
		req.OperatorUserID = req.UserID
	}

	logger := s.GetLogger(ctx).With(
		slog.Int64("user_id", req.UserID),
		slog.String("bill_type", string(req.BillType)),
		slog.String("billing_type", string(req.BillingType)),
	)

	var applied decimal.Decimal
	account, entry, err := s.ledgerRepo.ApplyMutation(ctx, req.UserID, func(current domain.BillingAccount) (domain.LedgerEntry, error) {
		if req.BillType == domain.Debit && !current.IsUsable() {
			return domain.LedgerEntry{}, fmt.Errorf("%w: account %d is %s", apperrors.ErrAccountAbnormal, current.UserID, current.Status)
		}

		mutation, err := accounting.ComputeMutation(current.Balance, req.Amount, req.BillType, req.Mode)
		if err != nil {
			return domain.LedgerEntry{}, err
		}
		applied = mutation.Applied

		return domain.LedgerEntry{
			EntryID:        uuid.NewString(),
			UserID:         req.UserID,
			Amount:         mutation.Applied,
			BillType:       req.BillType,
			BillingType:    req.BillingType,
			BusinessType:   req.BusinessType,
			Description:    req.Description,
			Remark:         req.Remark,
			EventID:        req.EventID,
			OperatorUserID: req.OperatorUserID,
			BalanceAfter:   mutation.NewBalance,
			CreatedAt:      s.now(),
		}, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInsufficientFunds), errors.Is(err, apperrors.ErrAccountAbnormal), errors.Is(err, apperrors.ErrDuplicate):
			logger.Warn("Ledger mutation rejected", slog.String("error", err.Error()))
		case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrValidation):
			logger.Info("Ledger mutation refused", slog.String("error", err.Error()))
		default:
			logger.Error("Ledger mutation failed", slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("failed to apply %s of %s to account %d: %w", req.BillType, req.Amount.String(), req.UserID, err)
	}

	if req.Mode == domain.ApplyModeCapped && applied.LessThan(req.Amount) {
		logger.Warn("Capped debit applied partially",
			slog.String("requested", req.Amount.String()),
			slog.String("applied", applied.String()))
	}

	logger.Info("Ledger entry appended",
		slog.String("entry_id", entry.EntryID),
		slog.String("amount", entry.Amount.String()),
		slog.String("balance_after", entry.BalanceAfter.String()))

	return &domain.ApplyResult{
		Account:       *account,
		Entry:         *entry,
		AppliedAmount: applied,
	}, nil
}

func (s *ledgerService) UpdateStatus(ctx context.Context, userID int64, status domain.AccountStatus, operatorUserID int64) (*domain.BillingAccount, error) {
	switch status {
	case domain.AccountStatusNormal, domain.AccountStatusFrozen, domain.AccountStatusAbnormal:
	default:
		return nil, fmt.Errorf("%w: unknown account status %q", apperrors.ErrValidation, status)
	}
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive, got %d", apperrors.ErrValidation, userID)
	}

	if err := s.balanceRepo.UpdateBalanceStatus(ctx, userID, status, operatorUserID, s.now()); err != nil {
		return nil, fmt.Errorf("failed to update status of account %d: %w", userID, err)
	}
	s.LogInfo(ctx, "Billing account status changed", slog.Int64("user_id", userID), slog.String("status", string(status)))

	return s.GetBalance(ctx, userID)
}

func (s *ledgerService) GetBalance(ctx context.Context, userID int64) (*domain.BillingAccount, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive, got %d", apperrors.ErrValidation, userID)
	}
	account, err := s.balanceRepo.FindBalanceByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of account %d: %w", userID, err)
	}
	return account, nil
}

func (s *ledgerService) ListEntries(ctx context.Context, userID int64, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	if _, err := s.GetBalance(ctx, userID); err != nil {
		return nil, err
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}

	entries, nextToken, err := s.ledgerRepo.ListEntriesByUserID(ctx, userID, params.Limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries of account %d: %w", userID, err)
	}

	resp := dto.ToListEntriesResponse(entries, nextToken)
	return &resp, nil
}

func (s *ledgerService) FindEntryByEventID(ctx context.Context, eventID string) (*domain.LedgerEntry, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event ID is required", apperrors.ErrValidation)
	}
	return s.ledgerRepo.FindEntryByEventID(ctx, eventID)
}
