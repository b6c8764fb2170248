package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/dto"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProcessor struct{ mock.Mock }

func (m *mockProcessor) Process(ctx context.Context, event domain.ChargeEvent) domain.ChargeOutcome {
	args := m.Called(ctx, event)
	return args.Get(0).(domain.ChargeOutcome)
}

type mockDeadLetters struct{ mock.Mock }

func (m *mockDeadLetters) Record(ctx context.Context, outcome domain.ChargeOutcome) (*domain.DeadLetter, error) {
	args := m.Called(ctx, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeadLetter), args.Error(1)
}

func (m *mockDeadLetters) ListDeadLetters(ctx context.Context, params dto.ListDeadLettersParams) (*dto.ListDeadLettersResponse, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*dto.ListDeadLettersResponse), args.Error(1)
}

func (m *mockDeadLetters) Replay(ctx context.Context, id string) (*domain.DeadLetter, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.DeadLetter), args.Error(1)
}

type mockLifecycle struct{ mock.Mock }

func (m *mockLifecycle) OnAccountCreated(ctx context.Context, userID int64) (*domain.ProvisionResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProvisionResult), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	return m.Called(ctx, exchange, routingKey, body).Error(0)
}

func (m *mockPublisher) PublishKeyed(ctx context.Context, exchange, routingKey, messageKey string, body interface{}) error {
	return m.Called(ctx, exchange, routingKey, messageKey, body).Error(0)
}

func (m *mockPublisher) Close() {}

type mockDeclarer struct{ mock.Mock }

func (m *mockDeclarer) DeclareQueue(name string, args amqp.Table) error {
	return m.Called(name, args).Error(0)
}

func (m *mockDeclarer) DeclareDelayQueue(name string, ttl time.Duration, targetExchange, targetRoutingKey string) error {
	return m.Called(name, ttl, targetExchange, targetRoutingKey).Error(0)
}

var testConfig = ChargeConsumerConfig{
	Exchange:                 "billing_events",
	ChargeQueue:              "billing.charges",
	ChargeRoutingKey:         "billing.charge",
	AccountCreatedRoutingKey: "billing.account.created",
	DeadLetterQueue:          "billing.charges.dead",
	MaxRetries:               3,
	RetryBaseDelay:           2 * time.Second,
	RetryMaxDelay:            5 * time.Second,
}

type handlerDeps struct {
	processor   *mockProcessor
	deadLetters *mockDeadLetters
	lifecycle   *mockLifecycle
	publisher   *mockPublisher
	handler     *ChargeEventHandler
}

func newHandler() handlerDeps {
	d := handlerDeps{
		processor:   new(mockProcessor),
		deadLetters: new(mockDeadLetters),
		lifecycle:   new(mockLifecycle),
		publisher:   new(mockPublisher),
	}
	container := &portssvc.ServiceContainer{
		Processor:  d.processor,
		DeadLetter: d.deadLetters,
		Lifecycle:  d.lifecycle,
	}
	d.handler = NewChargeEventHandler(container, d.publisher, slog.Default(), testConfig)
	return d
}

func chargeBody(t *testing.T, event domain.ChargeEvent) []byte {
	t.Helper()
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return body
}

func sampleEvent(retryCount int) domain.ChargeEvent {
	amount := decimal.NewFromInt(30)
	return domain.ChargeEvent{
		EventID:       "evt-1",
		RequestUserID: 1,
		Amount:        &amount,
		BusinessType:  "chat",
		RetryCount:    retryCount,
	}
}

func matchEventID(id string) interface{} {
	return mock.MatchedBy(func(e domain.ChargeEvent) bool { return e.EventID == id })
}

func TestRetryDelay(t *testing.T) {
	base, max := 2*time.Second, 5*time.Minute
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 2 * time.Second},
		{attempt: 1, want: 2 * time.Second},
		{attempt: 2, want: 4 * time.Second},
		{attempt: 3, want: 8 * time.Second},
		{attempt: 8, want: 256 * time.Second},
		{attempt: 9, want: 5 * time.Minute},
		{attempt: 50, want: 5 * time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryDelay(tt.attempt, base, max), "attempt %d", tt.attempt)
	}
}

func TestDeclareTopology(t *testing.T) {
	declarer := new(mockDeclarer)
	declarer.On("DeclareDelayQueue", "billing.charges.retry.1", 2*time.Second, "billing_events", "billing.charge").Return(nil).Once()
	declarer.On("DeclareDelayQueue", "billing.charges.retry.2", 4*time.Second, "billing_events", "billing.charge").Return(nil).Once()
	declarer.On("DeclareDelayQueue", "billing.charges.retry.3", 5*time.Second, "billing_events", "billing.charge").Return(nil).Once()
	declarer.On("DeclareQueue", "billing.charges.dead", amqp.Table(nil)).Return(nil).Once()

	require.NoError(t, DeclareTopology(declarer, testConfig))
	declarer.AssertExpectations(t)
}

func TestDeclareTopology_Error(t *testing.T) {
	declarer := new(mockDeclarer)
	declarer.On("DeclareDelayQueue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("channel closed")).Once()

	err := DeclareTopology(declarer, testConfig)
	assert.ErrorContains(t, err, "level 1")
}

func TestHandleChargeEvent_AppliedAndDiscardedAreAcked(t *testing.T) {
	for _, state := range []domain.ChargeState{domain.ChargeApplied, domain.ChargeDiscarded} {
		t.Run(string(state), func(t *testing.T) {
			d := newHandler()
			event := sampleEvent(0)
			d.processor.On("Process", mock.Anything, matchEventID("evt-1")).Return(domain.ChargeOutcome{State: state, Event: event}).Once()

			assert.True(t, d.handler.HandleChargeEvent(context.Background(), chargeBody(t, event)))
			d.publisher.AssertNotCalled(t, "PublishKeyed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			d.deadLetters.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleChargeEvent_TransientSchedulesRetry(t *testing.T) {
	d := newHandler()
	event := sampleEvent(1)
	d.processor.On("Process", mock.Anything, matchEventID("evt-1")).
		Return(domain.ChargeOutcome{State: domain.ChargeFailedTransient, Event: event, Err: apperrors.ErrUnavailable}).Once()
	d.publisher.On("PublishKeyed", mock.Anything, "", "billing.charges.retry.2", "evt-1",
		mock.MatchedBy(func(e domain.ChargeEvent) bool { return e.RetryCount == 2 })).Return(nil).Once()

	assert.True(t, d.handler.HandleChargeEvent(context.Background(), chargeBody(t, event)))
	d.publisher.AssertExpectations(t)
}

func TestHandleChargeEvent_RetryLevelIsCapped(t *testing.T) {
	d := newHandler()
	event := sampleEvent(7)
	d.processor.On("Process", mock.Anything, mock.Anything).
		Return(domain.ChargeOutcome{State: domain.ChargeFailedTransient, Event: event}).Once()
	d.publisher.On("PublishKeyed", mock.Anything, "", "billing.charges.retry.3", "evt-1", mock.Anything).Return(nil).Once()

	assert.True(t, d.handler.HandleChargeEvent(context.Background(), chargeBody(t, event)))
	d.publisher.AssertExpectations(t)
}

func TestHandleChargeEvent_RetryPublishFailureRequeues(t *testing.T) {
	d := newHandler()
	event := sampleEvent(0)
	d.processor.On("Process", mock.Anything, mock.Anything).
		Return(domain.ChargeOutcome{State: domain.ChargeFailedTransient, Event: event}).Once()
	d.publisher.On("PublishKeyed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker down")).Once()

	assert.False(t, d.handler.HandleChargeEvent(context.Background(), chargeBody(t, event)))
}

func TestHandleChargeEvent_TerminalIsParked(t *testing.T) {
	d := newHandler()
	event := sampleEvent(3)
	outcome := domain.ChargeOutcome{State: domain.ChargeFailedTerminal, Event: event, Reason: "retries exhausted"}
	deadLetter := &domain.DeadLetter{ID: "dl-1", EventID: "evt-1", Event: event}

	d.processor.On("Process", mock.Anything, mock.Anything).Return(outcome).Once()
	d.deadLetters.On("Record", mock.Anything, outcome).Return(deadLetter, nil).Once()
	d.publisher.On("PublishKeyed", mock.Anything, "", "billing.charges.dead", "evt-1", deadLetter).Return(nil).Once()

	assert.True(t, d.handler.HandleChargeEvent(context.Background(), chargeBody(t, event)))
	d.deadLetters.AssertExpectations(t)
	d.publisher.AssertExpectations(t)
}

func TestHandleChargeEvent_DeadLetterMirrorFailureStillAcks(t *testing.T) {
	d := newHandler()
	event := sampleEvent(0)
	outcome := domain.ChargeOutcome{State: domain.ChargeFailedTerminal, Event: event}

	d.processor.On("Process", mock.Anything, mock.Anything).Return(outcome).Once()
	d.deadLetters.On("Record", mock.Anything, outcome).Return(&domain.DeadLetter{ID: "dl-1"}, nil).Once()
	d.publisher.On("PublishKeyed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker down")).Once()

	assert.True(t, d.handler.HandleChargeEvent(context.Background(), chargeBody(t, event)))
}

func TestHandleChargeEvent_RecordFailureRequeues(t *testing.T) {
	d := newHandler()
	event := sampleEvent(0)
	outcome := domain.ChargeOutcome{State: domain.ChargeFailedTerminal, Event: event}

	d.processor.On("Process", mock.Anything, mock.Anything).Return(outcome).Once()
	d.deadLetters.On("Record", mock.Anything, outcome).Return(nil, apperrors.ErrUnavailable).Once()

	assert.False(t, d.handler.HandleChargeEvent(context.Background(), chargeBody(t, event)))
	d.publisher.AssertNotCalled(t, "PublishKeyed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleChargeEvent_MalformedPayloadIsParked(t *testing.T) {
	d := newHandler()
	d.deadLetters.On("Record", mock.Anything, mock.MatchedBy(func(o domain.ChargeOutcome) bool {
		return o.State == domain.ChargeFailedTerminal && errors.Is(o.Err, apperrors.ErrValidation)
	})).Return(&domain.DeadLetter{ID: "dl-2"}, nil).Once()
	d.publisher.On("PublishKeyed", mock.Anything, "", "billing.charges.dead", "", mock.Anything).Return(nil).Once()

	assert.True(t, d.handler.HandleChargeEvent(context.Background(), []byte("{not json")))
	d.processor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
	d.deadLetters.AssertExpectations(t)
}

func TestHandleAccountCreatedEvent(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		call    bool
		wantAck bool
	}{
		{name: "provisioned", body: `{"userId":7}`, call: true, wantAck: true},
		{name: "retryable failure", body: `{"userId":7}`, err: apperrors.ErrUnavailable, call: true, wantAck: false},
		{name: "permanent failure", body: `{"userId":7}`, err: apperrors.ErrValidation, call: true, wantAck: true},
		{name: "malformed", body: `nope`, wantAck: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newHandler()
			if tt.call {
				if tt.err != nil {
					d.lifecycle.On("OnAccountCreated", mock.Anything, int64(7)).Return(nil, tt.err).Once()
				} else {
					d.lifecycle.On("OnAccountCreated", mock.Anything, int64(7)).Return(&domain.ProvisionResult{}, nil).Once()
				}
			}

			assert.Equal(t, tt.wantAck, d.handler.HandleAccountCreatedEvent(context.Background(), []byte(tt.body)))
			d.lifecycle.AssertExpectations(t)
		})
	}
}
