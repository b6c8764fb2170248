package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/dto"
)

type userService struct {
	BaseService
	userRepo portsrepo.UserRepositoryFacade
}

// NewUserService creates a new UserService.
func NewUserService(userRepo portsrepo.UserRepositoryFacade) portssvc.UserSvc {
	return &userService{userRepo: userRepo}
}

var _ portssvc.UserSvc = (*userService)(nil)

func (s *userService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive, got %d", apperrors.ErrValidation, userID)
	}
	return s.userRepo.FindUserByID(ctx, userID)
}

// SyncUser stores the profile as pushed. Parent links are checked for shape only;
// whether the parent is a primary account is decided at resolution time.
func (s *userService) SyncUser(ctx context.Context, userID int64, req dto.SyncUserRequest) (*domain.User, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive, got %d", apperrors.ErrValidation, userID)
	}
	roleKey := strings.TrimSpace(req.RoleKey)
	if roleKey == "" {
		return nil, fmt.Errorf("%w: role key is required", apperrors.ErrValidation)
	}
	if req.ParentUserID != nil && (*req.ParentUserID <= 0 || *req.ParentUserID == userID) {
		return nil, fmt.Errorf("%w: invalid parent user ID for user %d", apperrors.ErrValidation, userID)
	}

	user := domain.User{UserID: userID, RoleKey: roleKey, ParentUserID: req.ParentUserID}
	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user %d: %w", userID, err)
	}

	s.LogDebug(ctx, "Identity profile synced",
		slog.Int64("user_id", userID),
		slog.String("identity_kind", domain.IdentityKindForRole(roleKey).String()))
	return &user, nil
}
