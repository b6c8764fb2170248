package pgsql

import (
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	balanceRepo := newPgxBalanceRepository(dbPool)
	ledgerRepo := newPgxLedgerRepository(dbPool, balanceRepo)
	userRepo := newPgxUserRepository(dbPool)
	priceRepo := newPgxPriceRepository(dbPool)
	deadLetterRepo := newPgxDeadLetterRepository(dbPool)

	return portsrepo.RepositoryProvider{
		BalanceRepo:    balanceRepo,
		LedgerRepo:     ledgerRepo,
		UserRepo:       userRepo,
		PriceRepo:      priceRepo,
		DeadLetterRepo: deadLetterRepo,
	}
}
