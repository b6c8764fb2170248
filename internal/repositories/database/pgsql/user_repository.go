package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/billing_ledger/internal/models"
	"github.com/SscSPs/billing_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxUserRepository struct {
	BaseRepository
}

// newPgxUserRepository creates a new repository for identity profiles.
func newPgxUserRepository(pool *pgxpool.Pool) portsrepo.UserRepositoryFacade {
	return &PgxUserRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	query := `SELECT user_id, role_key, parent_user_id, last_updated_at FROM user_profiles WHERE user_id = $1;`

	var m models.UserProfile
	err := r.Pool.QueryRow(ctx, query, userID).Scan(&m.UserID, &m.RoleKey, &m.ParentUserID, &m.LastUpdatedAt)
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("failed to find user %d", userID))
	}
	user := mapping.ToDomainUser(m)
	return &user, nil
}

// SaveUser upserts the profile.
func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	m := mapping.ToModelUserProfile(user)
	query := `
		INSERT INTO user_profiles (user_id, role_key, parent_user_id, last_updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET role_key = EXCLUDED.role_key,
		    parent_user_id = EXCLUDED.parent_user_id,
		    last_updated_at = EXCLUDED.last_updated_at;
	`
	if _, err := r.Pool.Exec(ctx, query, m.UserID, m.RoleKey, m.ParentUserID, time.Now().UTC()); err != nil {
		return mapPgError(err, fmt.Sprintf("failed to save user %d", m.UserID))
	}
	return nil
}
