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
)

var (
	ErrSubAccountUnbound = errors.New("sub-account not bound to a valid primary account")
	ErrNotChargeable     = errors.New("only primary or delegated sub-identities may be charged")
)

type accountResolver struct {
	BaseService
	userRepo portsrepo.UserReader
}

// NewAccountResolver creates the resolver that maps a requesting user to the account it bills.
func NewAccountResolver(userRepo portsrepo.UserReader) portssvc.AccountResolverSvc {
	return &accountResolver{userRepo: userRepo}
}

var _ portssvc.AccountResolverSvc = (*accountResolver)(nil)

func (s *accountResolver) Resolve(ctx context.Context, requestUserID int64) (*domain.ChargeAccount, error) {
	if requestUserID <= 0 {
		return nil, fmt.Errorf("%w: request user ID must be positive, got %d", apperrors.ErrValidation, requestUserID)
	}

	user, err := s.userRepo.FindUserByID(ctx, requestUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", requestUserID, err)
	}

	switch kind := domain.IdentityKindForRole(user.RoleKey); kind {
	case domain.IdentityPrimary:
		return &domain.ChargeAccount{
			ChargeUserID:   user.UserID,
			OperatorUserID: user.UserID,
			IsMainAccount:  true,
		}, nil
	case domain.IdentitySub:
		parentID, err := s.primaryParentOf(ctx, user)
		if err != nil {
			return nil, err
		}
		return &domain.ChargeAccount{
			ChargeUserID:   parentID,
			OperatorUserID: user.UserID,
			IsMainAccount:  false,
		}, nil
	default:
		s.LogDebug(ctx, "Identity is not chargeable", slog.Int64("user_id", user.UserID), slog.String("role_key", user.RoleKey))
		return nil, fmt.Errorf("%w: %w (user %d, role %q)", apperrors.ErrForbidden, ErrNotChargeable, user.UserID, user.RoleKey)
	}
}

func (s *accountResolver) primaryParentOf(ctx context.Context, user *domain.User) (int64, error) {
	if user.ParentUserID == nil || *user.ParentUserID <= 0 {
		return 0, fmt.Errorf("%w: %w (user %d has no parent)", apperrors.ErrConfiguration, ErrSubAccountUnbound, user.UserID)
	}

	parentID := *user.ParentUserID
	parent, err := s.userRepo.FindUserByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, fmt.Errorf("%w: %w (parent %d of user %d does not exist)", apperrors.ErrConfiguration, ErrSubAccountUnbound, parentID, user.UserID)
		}
		return 0, fmt.Errorf("failed to load parent %d of user %d: %w", parentID, user.UserID, err)
	}

	if domain.IdentityKindForRole(parent.RoleKey) != domain.IdentityPrimary {
		return 0, fmt.Errorf("%w: %w (parent %d of user %d has role %q)", apperrors.ErrConfiguration, ErrSubAccountUnbound, parentID, user.UserID, parent.RoleKey)
	}
	return parent.UserID, nil
}
