package models

import "time"

// AuditFields holds the audit columns shared by mutable tables.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	CreatedBy     int64     `db:"created_by"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
	LastUpdatedBy int64     `db:"last_updated_by"`
	Version       int64     `db:"version"`
}
