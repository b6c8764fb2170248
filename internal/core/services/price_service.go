package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/dto"
)

type priceService struct {
	BaseService
	priceRepo portsrepo.PriceRepositoryFacade
}

// NewPriceService creates a new PriceService.
func NewPriceService(priceRepo portsrepo.PriceRepositoryFacade) portssvc.PriceSvcFacade {
	return &priceService{priceRepo: priceRepo}
}

var _ portssvc.PriceSvcFacade = (*priceService)(nil)

func (s *priceService) GetPrice(ctx context.Context, businessType string) (*domain.Price, error) {
	businessType = strings.TrimSpace(businessType)
	if businessType == "" {
		return nil, fmt.Errorf("%w: business type is required", apperrors.ErrValidation)
	}
	return s.priceRepo.FindPriceByBusinessType(ctx, businessType)
}

// SetPrice stores the amount for businessType. A zero amount disables the price.
func (s *priceService) SetPrice(ctx context.Context, businessType string, req dto.SetPriceRequest) (*domain.Price, error) {
	businessType = strings.TrimSpace(businessType)
	if businessType == "" {
		return nil, fmt.Errorf("%w: business type is required", apperrors.ErrValidation)
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", apperrors.ErrValidation)
	}

	price := domain.Price{
		BusinessType:  businessType,
		Amount:        req.Amount,
		LastUpdatedAt: time.Now().UTC(),
	}
	if err := s.priceRepo.SavePrice(ctx, price); err != nil {
		return nil, fmt.Errorf("failed to save price %q: %w", businessType, err)
	}
	s.LogInfo(ctx, "Price updated", slog.String("business_type", businessType), slog.String("amount", price.Amount.String()))
	return &price, nil
}
