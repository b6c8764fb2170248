package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/billing_ledger/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxPriceRepository struct {
	BaseRepository
}

func newPgxPriceRepository(pool *pgxpool.Pool) portsrepo.PriceRepositoryFacade {
	return &PgxPriceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PriceRepositoryFacade = (*PgxPriceRepository)(nil)

func (r *PgxPriceRepository) FindPriceByBusinessType(ctx context.Context, businessType string) (*domain.Price, error) {
	query := `SELECT business_type, amount, last_updated_at FROM prices WHERE business_type = $1;`

	var m models.Price
	if err := r.Pool.QueryRow(ctx, query, businessType).Scan(&m.BusinessType, &m.Amount, &m.LastUpdatedAt); err != nil {
		return nil, mapPgError(err, fmt.Sprintf("failed to find price %q", businessType))
	}
	return &domain.Price{BusinessType: m.BusinessType, Amount: m.Amount, LastUpdatedAt: m.LastUpdatedAt}, nil
}

func (r *PgxPriceRepository) SavePrice(ctx context.Context, price domain.Price) error {
	query := `
		INSERT INTO prices (business_type, amount, last_updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (business_type) DO UPDATE
		SET amount = EXCLUDED.amount, last_updated_at = EXCLUDED.last_updated_at;
	`
	if _, err := r.Pool.Exec(ctx, query, price.BusinessType, price.Amount, price.LastUpdatedAt); err != nil {
		return mapPgError(err, fmt.Sprintf("failed to save price %q", price.BusinessType))
	}
	return nil
}
