package mapping

import (
	"database/sql"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	"github.com/SscSPs/billing_ledger/internal/models"
)

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	m := models.LedgerEntry{
		EntryID:        d.EntryID,
		UserID:         d.UserID,
		Amount:         d.Amount,
		BillType:       string(d.BillType),
		BillingType:    string(d.BillingType),
		BusinessType:   d.BusinessType,
		Description:    d.Description,
		Remark:         d.Remark,
		OperatorUserID: d.OperatorUserID,
		BalanceAfter:   d.BalanceAfter,
		CreatedAt:      d.CreatedAt,
	}
	if d.EventID != nil {
		m.EventID = sql.NullString{String: *d.EventID, Valid: true}
	}
	return m
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	d := domain.LedgerEntry{
		EntryID:        m.EntryID,
		UserID:         m.UserID,
		Amount:         m.Amount,
		BillType:       domain.BillType(m.BillType),
		BillingType:    domain.BillingType(m.BillingType),
		BusinessType:   m.BusinessType,
		Description:    m.Description,
		Remark:         m.Remark,
		OperatorUserID: m.OperatorUserID,
		BalanceAfter:   m.BalanceAfter,
		CreatedAt:      m.CreatedAt,
	}
	if m.EventID.Valid {
		eventID := m.EventID.String
		d.EventID = &eventID
	}
	return d
}

// ToDomainLedgerEntrySlice converts a slice of model entries to domain entries
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}
