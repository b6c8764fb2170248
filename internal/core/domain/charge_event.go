package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChargeEvent is the message emitted by a feature once billable usage is known.
// EventID is the idempotency key of the logical charge. RetryCount is only ever
// changed by the retry and dead-letter mechanism.
type ChargeEvent struct {
	EventID        string           `json:"eventId" validate:"required,max=128"`
	RequestUserID  int64            `json:"requestUserId" validate:"gte=0"`
	ChargeUserID   int64            `json:"chargeUserId" validate:"gte=0"`
	OperatorUserID int64            `json:"operatorUserId" validate:"gte=0"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	TotalTokens    int64            `json:"totalTokens" validate:"gte=0"`
	PricingMode    string           `json:"pricingMode,omitempty"`
	BillType       BillType         `json:"billType,omitempty" validate:"omitempty,oneof=DEBIT"`
	BillingType    BillingType      `json:"billingType,omitempty"`
	BusinessType   string           `json:"businessType" validate:"max=64"`
	Description    string           `json:"description,omitempty" validate:"max=255"`
	Remark         string           `json:"remark,omitempty" validate:"max=255"`
	OccurredAt     time.Time        `json:"occurredAt"`
	RetryCount     int              `json:"retryCount" validate:"gte=0"`
}

// BillableUserID is the identity the consumer resolves from: the requester when
// known, otherwise the charge account the producer already resolved.
func (e ChargeEvent) BillableUserID() int64 {
	if e.RequestUserID > 0 {
		return e.RequestUserID
	}
	return e.ChargeUserID
}

// HasPositiveAmount reports whether the event would move any money.
func (e ChargeEvent) HasPositiveAmount() bool {
	return e.Amount != nil && e.Amount.IsPositive()
}

// ChargeState is a step in the per-event processing state machine.
type ChargeState string

const (
	ChargeReceived        ChargeState = "RECEIVED"
	ChargeApplying        ChargeState = "APPLYING"
	ChargeApplied         ChargeState = "APPLIED"
	ChargeFailedTransient ChargeState = "FAILED_TRANSIENT"
	ChargeFailedTerminal  ChargeState = "FAILED_TERMINAL"
	ChargeDiscarded       ChargeState = "DISCARDED"
)

var chargeTransitions = map[ChargeState][]ChargeState{
	ChargeReceived:        {ChargeApplying, ChargeDiscarded, ChargeFailedTransient, ChargeFailedTerminal},
	ChargeApplying:        {ChargeApplied, ChargeFailedTransient, ChargeFailedTerminal, ChargeDiscarded},
	ChargeFailedTransient: {ChargeReceived, ChargeFailedTerminal},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s ChargeState) CanTransitionTo(next ChargeState) bool {
	for _, candidate := range chargeTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further processing happens in this state.
func (s ChargeState) IsTerminal() bool {
	return s == ChargeApplied || s == ChargeFailedTerminal || s == ChargeDiscarded
}

// ChargeOutcome is the result of processing one delivery of a charge event.
type ChargeOutcome struct {
	State  ChargeState
	Event  ChargeEvent
	Entry  *LedgerEntry
	Reason string
	Err    error
}

// DeadLetter is a charge event parked for manual compensation.
type DeadLetter struct {
	ID         string      `json:"id"`
	EventID    string      `json:"eventID"`
	Event      ChargeEvent `json:"event"`
	Reason     string      `json:"reason"`
	LastError  string      `json:"lastError"`
	RetryCount int         `json:"retryCount"`
	CreatedAt  time.Time   `json:"createdAt"`
	ReplayedAt *time.Time  `json:"replayedAt,omitempty"`
}
