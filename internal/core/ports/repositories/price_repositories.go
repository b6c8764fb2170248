package repositories

import (
	"context"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
)

// PriceReader defines read operations for configured prices
type PriceReader interface {
	// FindPriceByBusinessType returns apperrors.ErrNotFound when no price is configured.
	FindPriceByBusinessType(ctx context.Context, businessType string) (*domain.Price, error)
}

// PriceWriter defines write operations for configured prices
type PriceWriter interface {
	SavePrice(ctx context.Context, price domain.Price) error
}

// PriceRepositoryFacade combines all price-related repository interfaces
type PriceRepositoryFacade interface {
	PriceReader
	PriceWriter
}
