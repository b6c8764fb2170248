package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/dto"
	"github.com/SscSPs/billing_ledger/pkg/rabbitmq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Repository mocks ---

type MockUserRepository struct {
	mock.Mock
}

var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type MockBalanceRepository struct {
	mock.Mock
}

var _ portsrepo.BalanceRepositoryFacade = (*MockBalanceRepository)(nil)

func (m *MockBalanceRepository) FindBalanceByUserID(ctx context.Context, userID int64) (*domain.BillingAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingAccount), args.Error(1)
}

func (m *MockBalanceRepository) ListBalanceUserIDs(ctx context.Context, afterUserID int64, limit int) ([]int64, error) {
	args := m.Called(ctx, afterUserID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockBalanceRepository) CreateBalance(ctx context.Context, account domain.BillingAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockBalanceRepository) UpdateBalanceStatus(ctx context.Context, userID int64, status domain.AccountStatus, operatorUserID int64, now time.Time) error {
	args := m.Called(ctx, userID, status, operatorUserID, now)
	return args.Error(0)
}

type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepositoryFacade = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) FindEntryByEventID(ctx context.Context, eventID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) ListEntriesByUserID(ctx context.Context, userID int64, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	args := m.Called(ctx, userID, limit, nextToken)
	var entries []domain.LedgerEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.LedgerEntry)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return entries, token, args.Error(2)
}

func (m *MockLedgerRepository) LoadReconciliation(ctx context.Context, userID int64) (*domain.ReconciliationReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationReport), args.Error(1)
}

func (m *MockLedgerRepository) ApplyMutation(ctx context.Context, userID int64, mutate portsrepo.MutationFunc) (*domain.BillingAccount, *domain.LedgerEntry, error) {
	args := m.Called(ctx, userID, mutate)
	var account *domain.BillingAccount
	if args.Get(0) != nil {
		account = args.Get(0).(*domain.BillingAccount)
	}
	var entry *domain.LedgerEntry
	if args.Get(1) != nil {
		entry = args.Get(1).(*domain.LedgerEntry)
	}
	return account, entry, args.Error(2)
}

type MockPriceRepository struct {
	mock.Mock
}

var _ portsrepo.PriceRepositoryFacade = (*MockPriceRepository)(nil)

func (m *MockPriceRepository) FindPriceByBusinessType(ctx context.Context, businessType string) (*domain.Price, error) {
	args := m.Called(ctx, businessType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Price), args.Error(1)
}

func (m *MockPriceRepository) SavePrice(ctx context.Context, price domain.Price) error {
	args := m.Called(ctx, price)
	return args.Error(0)
}

type MockDeadLetterRepository struct {
	mock.Mock
}

var _ portsrepo.DeadLetterRepositoryFacade = (*MockDeadLetterRepository)(nil)

func (m *MockDeadLetterRepository) SaveDeadLetter(ctx context.Context, deadLetter domain.DeadLetter) error {
	args := m.Called(ctx, deadLetter)
	return args.Error(0)
}

func (m *MockDeadLetterRepository) FindDeadLetterByID(ctx context.Context, id string) (*domain.DeadLetter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeadLetter), args.Error(1)
}

func (m *MockDeadLetterRepository) ListDeadLetters(ctx context.Context, includeReplayed bool, limit int, nextToken *string) ([]domain.DeadLetter, *string, error) {
	args := m.Called(ctx, includeReplayed, limit, nextToken)
	var items []domain.DeadLetter
	if args.Get(0) != nil {
		items = args.Get(0).([]domain.DeadLetter)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return items, token, args.Error(2)
}

func (m *MockDeadLetterRepository) MarkReplayed(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockEventClaimStore struct {
	mock.Mock
}

var _ portsrepo.EventClaimStore = (*MockEventClaimStore)(nil)

func (m *MockEventClaimStore) Claim(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventClaimStore) Release(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

// --- Service mocks ---

type MockResolver struct {
	mock.Mock
}

var _ portssvc.AccountResolverSvc = (*MockResolver)(nil)

func (m *MockResolver) Resolve(ctx context.Context, requestUserID int64) (*domain.ChargeAccount, error) {
	args := m.Called(ctx, requestUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChargeAccount), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

func (m *MockLedgerService) Apply(ctx context.Context, req domain.ApplyRequest) (*domain.ApplyResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApplyResult), args.Error(1)
}

func (m *MockLedgerService) UpdateStatus(ctx context.Context, userID int64, status domain.AccountStatus, operatorUserID int64) (*domain.BillingAccount, error) {
	args := m.Called(ctx, userID, status, operatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingAccount), args.Error(1)
}

func (m *MockLedgerService) GetBalance(ctx context.Context, userID int64) (*domain.BillingAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingAccount), args.Error(1)
}

func (m *MockLedgerService) ListEntries(ctx context.Context, userID int64, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}

func (m *MockLedgerService) FindEntryByEventID(ctx context.Context, eventID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

type MockChargePublisher struct {
	mock.Mock
}

var _ portssvc.ChargePublisherSvc = (*MockChargePublisher)(nil)

func (m *MockChargePublisher) Publish(ctx context.Context, event domain.ChargeEvent) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

// MockBroker stands in for the RabbitMQ producer.
type MockBroker struct {
	mock.Mock
}

var _ rabbitmq.Publisher = (*MockBroker)(nil)

func (m *MockBroker) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	args := m.Called(ctx, exchange, routingKey, body)
	return args.Error(0)
}

func (m *MockBroker) PublishKeyed(ctx context.Context, exchange, routingKey, messageKey string, body interface{}) error {
	args := m.Called(ctx, exchange, routingKey, messageKey, body)
	return args.Error(0)
}

func (m *MockBroker) Close() {}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func int64Ptr(v int64) *int64 {
	return &v
}
