package models

import (
	"database/sql"
	"time"
)

// UserProfile is the local copy of an identity profile.
type UserProfile struct {
	UserID        int64         `db:"user_id"`
	RoleKey       string        `db:"role_key"`
	ParentUserID  sql.NullInt64 `db:"parent_user_id"`
	LastUpdatedAt time.Time     `db:"last_updated_at"`
}
