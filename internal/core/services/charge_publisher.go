package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/pkg/rabbitmq"
)

// ChargePublisherConfig carries the producer's share of the billing configuration.
type ChargePublisherConfig struct {
	Enabled    bool
	Exchange   string
	RoutingKey string
}

type chargePublisher struct {
	BaseService
	publisher rabbitmq.Publisher
	cfg       ChargePublisherConfig
}

// NewChargePublisher creates the producer side of the charge event pipeline.
func NewChargePublisher(publisher rabbitmq.Publisher, cfg ChargePublisherConfig) portssvc.ChargePublisherSvc {
	return &chargePublisher{publisher: publisher, cfg: cfg}
}

var _ portssvc.ChargePublisherSvc = (*chargePublisher)(nil)

// PublishKey is the message key of event: its EventID, else the charge account.
func PublishKey(event domain.ChargeEvent) string {
	if event.EventID != "" {
		return event.EventID
	}
	return strconv.FormatInt(event.ChargeUserID, 10)
}

func (s *chargePublisher) Publish(ctx context.Context, event domain.ChargeEvent) (bool, error) {
	logger := s.GetLogger(ctx).With(slog.String("event_id", event.EventID), slog.Int64("charge_user_id", event.ChargeUserID))

	if !s.cfg.Enabled {
		logger.Debug("Billing disabled, charge event not published")
		return false, nil
	}
	if !event.HasPositiveAmount() {
		logger.Debug("Charge event has no positive amount, not published")
		return false, nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if event.BillType == "" {
		event.BillType = domain.Debit
	}
	if event.BillingType == "" {
		event.BillingType = domain.BillingTypeConsumption
	}

	key := PublishKey(event)
	if err := s.publisher.PublishKeyed(ctx, s.cfg.Exchange, s.cfg.RoutingKey, key, event); err != nil {
		logger.Error("Failed to publish charge event", slog.String("publish_key", key), slog.String("error", err.Error()))
		return false, fmt.Errorf("%w: failed to publish charge event %s: %w", apperrors.ErrUnavailable, key, err)
	}

	logger.Info("Charge event published", slog.String("publish_key", key), slog.String("amount", event.Amount.String()))
	return true, nil
}
