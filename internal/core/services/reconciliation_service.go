package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
)

const reconcileBatchSize = 500

type reconciliationService struct {
	BaseService
	balanceRepo portsrepo.BalanceReader
	ledgerRepo  portsrepo.LedgerReader
}

// NewReconciliationService creates the service checking balances against the ledger.
func NewReconciliationService(balanceRepo portsrepo.BalanceReader, ledgerRepo portsrepo.LedgerReader) portssvc.ReconciliationSvc {
	return &reconciliationService{balanceRepo: balanceRepo, ledgerRepo: ledgerRepo}
}

var _ portssvc.ReconciliationSvc = (*reconciliationService)(nil)

func (s *reconciliationService) Reconcile(ctx context.Context, userID int64) (*domain.ReconciliationReport, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive, got %d", apperrors.ErrValidation, userID)
	}

	report, err := s.ledgerRepo.LoadReconciliation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reconciliation data for account %d: %w", userID, err)
	}
	report.Consistent = report.Drift().IsZero()
	return report, nil
}

func (s *reconciliationService) ReconcileAll(ctx context.Context) ([]domain.ReconciliationReport, error) {
	var (
		inconsistent []domain.ReconciliationReport
		afterUserID  int64
		checked      int
	)

	for {
		userIDs, err := s.balanceRepo.ListBalanceUserIDs(ctx, afterUserID, reconcileBatchSize)
		if err != nil {
			return inconsistent, fmt.Errorf("failed to list accounts after %d: %w", afterUserID, err)
		}
		if len(userIDs) == 0 {
			break
		}

		for _, userID := range userIDs {
			if err := ctx.Err(); err != nil {
				return inconsistent, err
			}
			report, err := s.Reconcile(ctx, userID)
			if err != nil {
				s.LogError(ctx, err, "Reconciliation check failed", slog.Int64("user_id", userID))
				continue
			}
			checked++
			if !report.Consistent {
				s.LogError(ctx, fmt.Errorf("balance drift %s", report.Drift().String()), "Ledger does not reconcile with balance",
					slog.Int64("user_id", userID),
					slog.String("balance", report.Balance.String()),
					slog.String("credits", report.TotalCredits.String()),
					slog.String("debits", report.TotalDebits.String()))
				inconsistent = append(inconsistent, *report)
			}
		}
		afterUserID = userIDs[len(userIDs)-1]
	}

	s.LogInfo(ctx, "Reconciliation sweep finished", slog.Int("checked", checked), slog.Int("inconsistent", len(inconsistent)))
	return inconsistent, nil
}
