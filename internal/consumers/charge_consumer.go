// Package consumers holds the RabbitMQ message handlers of the billing pipeline.
package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/core/services"
	"github.com/SscSPs/billing_ledger/internal/middleware"
	"github.com/SscSPs/billing_ledger/pkg/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ChargeConsumerConfig holds the queue topology and retry policy of the charge pipeline.
type ChargeConsumerConfig struct {
	Exchange                 string
	ChargeQueue              string
	ChargeRoutingKey         string
	AccountCreatedRoutingKey string
	DeadLetterQueue          string
	Prefetch                 int
	MaxRetries               int
	RetryBaseDelay           time.Duration
	RetryMaxDelay            time.Duration
	HandleTimeout            time.Duration
}

// QueueDeclarer is the subset of the producer used to declare the retry topology.
type QueueDeclarer interface {
	DeclareQueue(name string, args amqp.Table) error
	DeclareDelayQueue(name string, ttl time.Duration, targetExchange, targetRoutingKey string) error
}

// ChargeEventHandler feeds deliveries through the charge processor and routes the outcome:
// ack, republish to a delay queue, or park in the dead-letter store.
type ChargeEventHandler struct {
	processor   portssvc.ChargeProcessorSvc
	deadLetters portssvc.DeadLetterSvcFacade
	lifecycle   portssvc.LifecycleHookSvc
	publisher   rabbitmq.Publisher
	logger      *slog.Logger
	cfg         ChargeConsumerConfig
}

// NewChargeEventHandler creates a new instance of ChargeEventHandler.
func NewChargeEventHandler(container *portssvc.ServiceContainer, publisher rabbitmq.Publisher, logger *slog.Logger, cfg ChargeConsumerConfig) *ChargeEventHandler {
	if cfg.HandleTimeout <= 0 {
		cfg.HandleTimeout = 45 * time.Second
	}
	return &ChargeEventHandler{
		processor:   container.Processor,
		deadLetters: container.DeadLetter,
		lifecycle:   container.Lifecycle,
		publisher:   publisher,
		logger:      logger.With(slog.String("component", "charge_consumer")),
		cfg:         cfg,
	}
}

// RetryDelay returns base*2^(attempt-1), capped at max.
func RetryDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

// RetryQueueName is the delay queue holding events waiting for their level-th retry.
func RetryQueueName(chargeQueue string, level int) string {
	return fmt.Sprintf("%s.retry.%d", chargeQueue, level)
}

// DeclareTopology declares one delay queue per retry level and the dead-letter queue.
// Expired delay messages are routed back to the charge queue through the exchange.
func DeclareTopology(declarer QueueDeclarer, cfg ChargeConsumerConfig) error {
	for level := 1; level <= cfg.MaxRetries; level++ {
		ttl := RetryDelay(level, cfg.RetryBaseDelay, cfg.RetryMaxDelay)
		if err := declarer.DeclareDelayQueue(RetryQueueName(cfg.ChargeQueue, level), ttl, cfg.Exchange, cfg.ChargeRoutingKey); err != nil {
			return fmt.Errorf("declare retry queue level %d: %w", level, err)
		}
	}
	if err := declarer.DeclareQueue(cfg.DeadLetterQueue, nil); err != nil {
		return fmt.Errorf("declare dead-letter queue: %w", err)
	}
	return nil
}

// Start binds the charge and account-created routing keys to the charge queue.
func (h *ChargeEventHandler) Start(ctx context.Context, consumer *rabbitmq.Consumer) error {
	bindings := map[string]rabbitmq.Handler{
		h.cfg.ChargeRoutingKey: h.HandleChargeEvent,
	}
	if h.cfg.AccountCreatedRoutingKey != "" {
		bindings[h.cfg.AccountCreatedRoutingKey] = h.HandleAccountCreatedEvent
	}
	return consumer.ConsumeWithBindings(ctx, h.cfg.Exchange, h.cfg.ChargeQueue, h.cfg.Prefetch, bindings)
}

// HandleChargeEvent returns true when the delivery can be acknowledged. It returns
// false only when the outcome could not be handed off, so the broker redelivers.
func (h *ChargeEventHandler) HandleChargeEvent(ctx context.Context, body []byte) bool {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.HandleTimeout)
	defer cancel()

	var event domain.ChargeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("Malformed charge event, parking it", slog.String("error", err.Error()))
		return h.park(ctx, domain.ChargeOutcome{
			State:  domain.ChargeFailedTerminal,
			Reason: services.ReasonInvalid,
			Err:    fmt.Errorf("%w: malformed payload: %w", apperrors.ErrValidation, err),
		})
	}

	logger := h.logger.With(slog.String("event_id", event.EventID))
	ctx = middleware.WithLogger(ctx, logger)

	outcome := h.processor.Process(ctx, event)
	switch outcome.State {
	case domain.ChargeApplied, domain.ChargeDiscarded:
		return true
	case domain.ChargeFailedTransient:
		return h.scheduleRetry(ctx, logger, outcome.Event)
	case domain.ChargeFailedTerminal:
		return h.park(ctx, outcome)
	default:
		logger.Error("Charge processing ended in a non-final state", slog.String("state", string(outcome.State)))
		return false
	}
}

func (h *ChargeEventHandler) scheduleRetry(ctx context.Context, logger *slog.Logger, event domain.ChargeEvent) bool {
	event.RetryCount++
	level := event.RetryCount
	if level > h.cfg.MaxRetries {
		level = h.cfg.MaxRetries
	}
	if level < 1 {
		level = 1
	}
	queue := RetryQueueName(h.cfg.ChargeQueue, level)

	if err := h.publisher.PublishKeyed(ctx, "", queue, event.EventID, event); err != nil {
		logger.Error("Failed to schedule charge retry, requeueing delivery", slog.String("queue", queue), slog.String("error", err.Error()))
		return false
	}
	logger.Info("Charge retry scheduled",
		slog.Int("retry_count", event.RetryCount),
		slog.Duration("delay", RetryDelay(level, h.cfg.RetryBaseDelay, h.cfg.RetryMaxDelay)))
	return true
}

// park persists the terminal outcome and mirrors the event onto the dead-letter queue.
// The database record is authoritative; a failed mirror publish is only logged.
func (h *ChargeEventHandler) park(ctx context.Context, outcome domain.ChargeOutcome) bool {
	deadLetter, err := h.deadLetters.Record(ctx, outcome)
	if err != nil {
		h.logger.Error("Failed to record dead letter, requeueing delivery",
			slog.String("event_id", outcome.Event.EventID),
			slog.String("error", err.Error()))
		return false
	}

	if h.cfg.DeadLetterQueue != "" {
		if err := h.publisher.PublishKeyed(ctx, "", h.cfg.DeadLetterQueue, outcome.Event.EventID, deadLetter); err != nil {
			h.logger.Warn("Failed to mirror dead letter to queue",
				slog.String("dead_letter_id", deadLetter.ID),
				slog.String("error", err.Error()))
		}
	}
	return true
}

// HandleAccountCreatedEvent runs the lifecycle hook. Only retryable failures are redelivered.
func (h *ChargeEventHandler) HandleAccountCreatedEvent(ctx context.Context, body []byte) bool {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.HandleTimeout)
	defer cancel()

	var event domain.AccountCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("Malformed account created event, dropping", slog.String("error", err.Error()))
		return true
	}

	logger := h.logger.With(slog.Int64("user_id", event.UserID))
	ctx = middleware.WithLogger(ctx, logger)

	if _, err := h.lifecycle.OnAccountCreated(ctx, event.UserID); err != nil {
		if apperrors.IsRetryable(err) {
			logger.Warn("Account provisioning failed, requeueing", slog.String("error", err.Error()))
			return false
		}
		logger.Error("Account provisioning rejected, dropping event", slog.String("error", err.Error()))
		return true
	}
	return true
}
