package mapping

import (
	"database/sql"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	"github.com/SscSPs/billing_ledger/internal/models"
)

// ToModelUserProfile converts a domain User to a model UserProfile
func ToModelUserProfile(d domain.User) models.UserProfile {
	m := models.UserProfile{UserID: d.UserID, RoleKey: d.RoleKey}
	if d.ParentUserID != nil {
		m.ParentUserID = sql.NullInt64{Int64: *d.ParentUserID, Valid: true}
	}
	return m
}

// ToDomainUser converts a model UserProfile to a domain User
func ToDomainUser(m models.UserProfile) domain.User {
	d := domain.User{UserID: m.UserID, RoleKey: m.RoleKey}
	if m.ParentUserID.Valid {
		parent := m.ParentUserID.Int64
		d.ParentUserID = &parent
	}
	return d
}
