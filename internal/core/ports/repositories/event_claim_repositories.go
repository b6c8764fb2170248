package repositories

import (
	"context"
	"time"
)

// EventClaimStore gives one worker at a time exclusive processing of an event ID.
type EventClaimStore interface {
	// Claim returns false when another worker already holds the claim.
	Claim(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, eventID string) error
}
