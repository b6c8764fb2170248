package models

import (
	"database/sql"
	"time"
)

// DeadLetter is a row of charge_dead_letters. Payload holds the JSON encoded charge event.
type DeadLetter struct {
	ID         string       `db:"id"`
	EventID    string       `db:"event_id"`
	Payload    []byte       `db:"payload"`
	Reason     string       `db:"reason"`
	LastError  string       `db:"last_error"`
	RetryCount int          `db:"retry_count"`
	CreatedAt  time.Time    `db:"created_at"`
	ReplayedAt sql.NullTime `db:"replayed_at"`
}
