package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

const firstTimeGrantEventPrefix = "first-time-grant:"

type lifecycleHook struct {
	BaseService
	userRepo          portsrepo.UserReader
	balanceRepo       portsrepo.BalanceRepositoryFacade
	priceRepo         portsrepo.PriceReader
	ledger            portssvc.LedgerSvcFacade
	grantBusinessType string
	now               func() time.Time
}

// NewLifecycleHook creates the hook run when a primary billable account is created.
// grantBusinessType is the price tag looked up for the first-time grant.
func NewLifecycleHook(
	userRepo portsrepo.UserReader,
	balanceRepo portsrepo.BalanceRepositoryFacade,
	priceRepo portsrepo.PriceReader,
	ledger portssvc.LedgerSvcFacade,
	grantBusinessType string,
) portssvc.LifecycleHookSvc {
	return &lifecycleHook{
		userRepo:          userRepo,
		balanceRepo:       balanceRepo,
		priceRepo:         priceRepo,
		ledger:            ledger,
		grantBusinessType: grantBusinessType,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

var _ portssvc.LifecycleHookSvc = (*lifecycleHook)(nil)

// FirstTimeGrantEventID is the idempotency key of the grant for userID.
func FirstTimeGrantEventID(userID int64) string {
	return firstTimeGrantEventPrefix + strconv.FormatInt(userID, 10)
}

// OnAccountCreated provisions a zero balance and applies the first-time grant.
// Grant failures are logged and never returned: the account stays provisioned.
// Re-running the hook for an existing account retries a missing grant; the grant's
// event ID keeps it from being applied twice.
func (s *lifecycleHook) OnAccountCreated(ctx context.Context, userID int64) (*domain.ProvisionResult, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive, got %d", apperrors.ErrValidation, userID)
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if domain.IdentityKindForRole(user.RoleKey) != domain.IdentityPrimary {
		return nil, fmt.Errorf("%w: only primary accounts hold a balance (user %d, role %q)", apperrors.ErrValidation, userID, user.RoleKey)
	}

	now := s.now()
	account := domain.BillingAccount{
		UserID:  userID,
		Balance: decimal.Zero,
		Status:  domain.AccountStatusNormal,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
			Version:       1,
		},
	}

	if err := s.balanceRepo.CreateBalance(ctx, account); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to provision billing account, first-time grant aborted", slog.Int64("user_id", userID))
			return nil, fmt.Errorf("failed to provision billing account %d: %w", userID, err)
		}
		existing, findErr := s.balanceRepo.FindBalanceByUserID(ctx, userID)
		if findErr != nil {
			return nil, fmt.Errorf("failed to load existing billing account %d: %w", userID, findErr)
		}
		s.LogInfo(ctx, "Billing account already provisioned", slog.Int64("user_id", userID))
		account = *existing
	} else {
		s.LogInfo(ctx, "Billing account provisioned", slog.Int64("user_id", userID))
	}

	result := &domain.ProvisionResult{Account: account}
	if granted := s.grant(ctx, userID); granted != nil {
		result.GrantEntry = &granted.Entry
		result.Account = granted.Account
	}
	return result, nil
}

func (s *lifecycleHook) grant(ctx context.Context, userID int64) *domain.ApplyResult {
	logger := s.GetLogger(ctx).With(slog.Int64("user_id", userID), slog.String("business_type", s.grantBusinessType))

	if s.grantBusinessType == "" {
		return nil
	}

	price, err := s.priceRepo.FindPriceByBusinessType(ctx, s.grantBusinessType)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Debug("No first-time grant price configured")
		} else {
			logger.Warn("Failed to look up first-time grant price", slog.String("error", err.Error()))
		}
		return nil
	}
	if !price.Amount.IsPositive() {
		logger.Debug("First-time grant price is not positive, skipping", slog.String("amount", price.Amount.String()))
		return nil
	}

	eventID := FirstTimeGrantEventID(userID)
	if _, err := s.ledger.FindEntryByEventID(ctx, eventID); err == nil {
		logger.Debug("First-time grant already applied")
		return nil
	}

	res, err := s.ledger.Apply(ctx, domain.ApplyRequest{
		UserID:         userID,
		Amount:         price.Amount,
		BillType:       domain.Credit,
		BillingType:    domain.BillingTypeFirstTimeGrant,
		BusinessType:   s.grantBusinessType,
		Description:    "First-time grant",
		OperatorUserID: userID,
		EventID:        &eventID,
		Mode:           domain.ApplyModeStrict,
	})
	if err != nil {
		logger.Warn("First-time grant failed", slog.String("error", err.Error()))
		return nil
	}

	logger.Info("First-time grant applied", slog.String("amount", res.AppliedAmount.String()))
	return res
}
