package dto

import (
	"time"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PublishChargeRequest is a charge reported by a feature over HTTP instead of the broker.
type PublishChargeRequest struct {
	EventID       string           `json:"eventID" binding:"omitempty,max=128"`
	RequestUserID int64            `json:"requestUserID" binding:"required,gt=0"`
	Amount        *decimal.Decimal `json:"amount"`
	TotalTokens   int64            `json:"totalTokens" binding:"gte=0"`
	PricingMode   string           `json:"pricingMode" binding:"max=32"`
	BusinessType  string           `json:"businessType" binding:"required,max=64"`
	Description   string           `json:"description" binding:"max=255"`
	Remark        string           `json:"remark" binding:"max=255"`
	OccurredAt    *time.Time       `json:"occurredAt"`
}

// PublishChargeResponse tells the caller whether the event left the producer.
type PublishChargeResponse struct {
	EventID   string `json:"eventID"`
	Published bool   `json:"published"`
}

// DeadLetterResponse mirrors domain.DeadLetter.
type DeadLetterResponse struct {
	ID         string             `json:"id"`
	EventID    string             `json:"eventID"`
	Event      domain.ChargeEvent `json:"event"`
	Reason     string             `json:"reason"`
	LastError  string             `json:"lastError"`
	RetryCount int                `json:"retryCount"`
	CreatedAt  time.Time          `json:"createdAt"`
	ReplayedAt *time.Time         `json:"replayedAt,omitempty"`
}

// ListDeadLettersParams defines query parameters for listing dead letters.
type ListDeadLettersParams struct {
	Limit           int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken       *string `form:"nextToken"`
	IncludeReplayed bool    `form:"includeReplayed"`
}

// ListDeadLettersResponse wraps a page of dead letters.
type ListDeadLettersResponse struct {
	DeadLetters []DeadLetterResponse `json:"deadLetters"`
	NextToken   *string              `json:"nextToken,omitempty"`
}

// SetPriceRequest configures the amount for a business-type tag.
type SetPriceRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ToDeadLetterResponse converts a domain.DeadLetter to DeadLetterResponse DTO
func ToDeadLetterResponse(dl *domain.DeadLetter) DeadLetterResponse {
	return DeadLetterResponse{
		ID:         dl.ID,
		EventID:    dl.EventID,
		Event:      dl.Event,
		Reason:     dl.Reason,
		LastError:  dl.LastError,
		RetryCount: dl.RetryCount,
		CreatedAt:  dl.CreatedAt,
		ReplayedAt: dl.ReplayedAt,
	}
}

// ToListDeadLettersResponse converts a page of dead letters to its DTO.
func ToListDeadLettersResponse(items []domain.DeadLetter, nextToken *string) ListDeadLettersResponse {
	res := make([]DeadLetterResponse, len(items))
	for i := range items {
		res[i] = ToDeadLetterResponse(&items[i])
	}
	return ListDeadLettersResponse{DeadLetters: res, NextToken: nextToken}
}

// PriceResponse defines the data returned for a configured price.
type PriceResponse struct {
	BusinessType  string          `json:"businessType"`
	Amount        decimal.Decimal `json:"amount"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// ToPriceResponse converts a domain.Price to PriceResponse DTO
func ToPriceResponse(p *domain.Price) PriceResponse {
	return PriceResponse{
		BusinessType:  p.BusinessType,
		Amount:        p.Amount,
		LastUpdatedAt: p.LastUpdatedAt,
	}
}
