package mapping

import (
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	"github.com/SscSPs/billing_ledger/internal/models"
)

// ToModelBillingAccount converts a domain BillingAccount to a model BillingAccount.
// The audit structs share a field layout, so they convert directly.
func ToModelBillingAccount(d domain.BillingAccount) models.BillingAccount {
	return models.BillingAccount{
		UserID:      d.UserID,
		Balance:     d.Balance,
		Status:      string(d.Status),
		AuditFields: models.AuditFields(d.AuditFields),
	}
}

// ToDomainBillingAccount converts a model BillingAccount to a domain BillingAccount
func ToDomainBillingAccount(m models.BillingAccount) domain.BillingAccount {
	return domain.BillingAccount{
		UserID:      m.UserID,
		Balance:     m.Balance,
		Status:      domain.AccountStatus(m.Status),
		AuditFields: domain.AuditFields(m.AuditFields),
	}
}
