package mapping

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	"github.com/SscSPs/billing_ledger/internal/models"
)

// ToModelDeadLetter converts a domain DeadLetter to a model DeadLetter, encoding the event payload.
func ToModelDeadLetter(d domain.DeadLetter) (models.DeadLetter, error) {
	payload, err := json.Marshal(d.Event)
	if err != nil {
		return models.DeadLetter{}, fmt.Errorf("failed to encode dead letter payload: %w", err)
	}
	m := models.DeadLetter{
		ID:         d.ID,
		EventID:    d.EventID,
		Payload:    payload,
		Reason:     d.Reason,
		LastError:  d.LastError,
		RetryCount: d.RetryCount,
		CreatedAt:  d.CreatedAt,
	}
	if d.ReplayedAt != nil {
		m.ReplayedAt = sql.NullTime{Time: *d.ReplayedAt, Valid: true}
	}
	return m, nil
}

// ToDomainDeadLetter converts a model DeadLetter to a domain DeadLetter.
func ToDomainDeadLetter(m models.DeadLetter) (domain.DeadLetter, error) {
	d := domain.DeadLetter{
		ID:         m.ID,
		EventID:    m.EventID,
		Reason:     m.Reason,
		LastError:  m.LastError,
		RetryCount: m.RetryCount,
		CreatedAt:  m.CreatedAt,
	}
	if err := json.Unmarshal(m.Payload, &d.Event); err != nil {
		return domain.DeadLetter{}, fmt.Errorf("failed to decode dead letter %s payload: %w", m.ID, err)
	}
	if m.ReplayedAt.Valid {
		replayedAt := m.ReplayedAt.Time
		d.ReplayedAt = &replayedAt
	}
	return d, nil
}
