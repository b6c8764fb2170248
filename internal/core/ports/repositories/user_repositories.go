package repositories

import (
	"context"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
)

// UserReader reads identity profiles owned by the identity collaborator.
type UserReader interface {
	FindUserByID(ctx context.Context, userID int64) (*domain.User, error)
}

// UserWriter stores the local copy of identity profiles pushed by the identity collaborator.
type UserWriter interface {
	// SaveUser inserts or replaces the profile.
	SaveUser(ctx context.Context, user domain.User) error
}

// UserRepositoryFacade combines all user-related repository interfaces
type UserRepositoryFacade interface {
	UserReader
	UserWriter
}
