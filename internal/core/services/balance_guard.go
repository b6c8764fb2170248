package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

type balanceGuard struct {
	BaseService
	resolver    portssvc.AccountResolverSvc
	balanceRepo portsrepo.BalanceReader
}

// NewBalanceGuard creates the read-only balance pre-check.
func NewBalanceGuard(resolver portssvc.AccountResolverSvc, balanceRepo portsrepo.BalanceReader) portssvc.BalanceGuardSvc {
	return &balanceGuard{resolver: resolver, balanceRepo: balanceRepo}
}

var _ portssvc.BalanceGuardSvc = (*balanceGuard)(nil)

// EnsureSufficient does not reserve funds. The balance may change before the caller's
// debit; the debit performs the authoritative check under the account lock.
func (s *balanceGuard) EnsureSufficient(ctx context.Context, requestUserID int64, minimumAmount *decimal.Decimal, scene string) (*domain.ChargeAccount, error) {
	minimum := decimal.Zero
	if minimumAmount != nil && minimumAmount.IsPositive() {
		minimum = *minimumAmount
	}

	chargeAccount, err := s.resolver.Resolve(ctx, requestUserID)
	if err != nil {
		return nil, err
	}

	account, err := s.balanceRepo.FindBalanceByUserID(ctx, chargeAccount.ChargeUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no billing account for user %d", apperrors.ErrNotFound, chargeAccount.ChargeUserID)
		}
		return nil, fmt.Errorf("failed to load balance for user %d: %w", chargeAccount.ChargeUserID, err)
	}

	if !account.IsUsable() {
		return nil, fmt.Errorf("%w: account %d is %s", apperrors.ErrAccountAbnormal, account.UserID, account.Status)
	}

	available := account.Balance
	if available.LessThan(minimum) {
		s.LogInfo(ctx, "Balance below required minimum",
			slog.Int64("charge_user_id", chargeAccount.ChargeUserID),
			slog.String("scene", scene),
			slog.String("available", available.String()),
			slog.String("minimum", minimum.String()))
		return nil, fmt.Errorf("%w: available %s is below required %s for %s", apperrors.ErrInsufficientFunds, available.String(), minimum.String(), scene)
	}

	return chargeAccount, nil
}
