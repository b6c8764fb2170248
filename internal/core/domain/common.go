package domain

import "time"

// AuditFields holds standard audit information for domain entities.
// User references are the numeric identifiers issued by the identity collaborator.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     int64     `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy int64     `json:"lastUpdatedBy"`
	Version       int64     `json:"version"`
}
