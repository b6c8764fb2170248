package accounting

import (
	"fmt"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Mutation is the computed effect of applying an amount to a balance.
type Mutation struct {
	Applied    decimal.Decimal
	NewBalance decimal.Decimal
}

// ComputeMutation applies amount to current according to billType and mode.
// Credits always add the full amount. Strict debits fail when current < amount;
// capped debits apply min(amount, current) and fail only when nothing can be applied.
func ComputeMutation(current, amount decimal.Decimal, billType domain.BillType, mode domain.ApplyMode) (Mutation, error) {
	if !amount.IsPositive() {
		return Mutation{}, fmt.Errorf("%w: amount must be greater than zero, got %s", apperrors.ErrValidation, amount.String())
	}

	switch billType {
	case domain.Credit:
		return Mutation{Applied: amount, NewBalance: current.Add(amount)}, nil
	case domain.Debit:
		switch mode {
		case domain.ApplyModeStrict, "":
			if current.LessThan(amount) {
				return Mutation{}, fmt.Errorf("%w: balance %s is below debit amount %s", apperrors.ErrInsufficientFunds, current.String(), amount.String())
			}
			return Mutation{Applied: amount, NewBalance: current.Sub(amount)}, nil
		case domain.ApplyModeCapped:
			applied := decimal.Min(amount, current)
			if !applied.IsPositive() {
				return Mutation{}, fmt.Errorf("%w: no balance available for capped debit of %s", apperrors.ErrInsufficientFunds, amount.String())
			}
			return Mutation{Applied: applied, NewBalance: current.Sub(applied)}, nil
		default:
			return Mutation{}, fmt.Errorf("%w: unknown apply mode '%s'", apperrors.ErrValidation, mode)
		}
	default:
		return Mutation{}, fmt.Errorf("%w: unknown bill type '%s'", apperrors.ErrValidation, billType)
	}
}

// SumEntries totals credits and debits of a set of ledger entries.
func SumEntries(entries []domain.LedgerEntry) (credits decimal.Decimal, debits decimal.Decimal) {
	credits, debits = decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.BillType {
		case domain.Credit:
			credits = credits.Add(e.Amount)
		case domain.Debit:
			debits = debits.Add(e.Amount)
		}
	}
	return credits, debits
}
