package handlers_test

import (
	"context"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockResolver struct{ mock.Mock }

var _ portssvc.AccountResolverSvc = (*MockResolver)(nil)

func (m *MockResolver) Resolve(ctx context.Context, requestUserID int64) (*domain.ChargeAccount, error) {
	args := m.Called(ctx, requestUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChargeAccount), args.Error(1)
}

type MockGuard struct{ mock.Mock }

var _ portssvc.BalanceGuardSvc = (*MockGuard)(nil)

func (m *MockGuard) EnsureSufficient(ctx context.Context, requestUserID int64, minimumAmount *decimal.Decimal, scene string) (*domain.ChargeAccount, error) {
	args := m.Called(ctx, requestUserID, minimumAmount, scene)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChargeAccount), args.Error(1)
}

type MockLifecycle struct{ mock.Mock }

var _ portssvc.LifecycleHookSvc = (*MockLifecycle)(nil)

func (m *MockLifecycle) OnAccountCreated(ctx context.Context, userID int64) (*domain.ProvisionResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProvisionResult), args.Error(1)
}

type MockLedgerService struct{ mock.Mock }

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

type MockReconciliation struct{ mock.Mock }

var _ portssvc.ReconciliationSvc = (*MockReconciliation)(nil)

func (m *MockReconciliation) Reconcile(ctx context.Context, userID int64) (*domain.ReconciliationReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationReport), args.Error(1)
}

func (m *MockReconciliation) ReconcileAll(ctx context.Context) ([]domain.ReconciliationReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationReport), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

var _ portssvc.ChargePublisherSvc = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, event domain.ChargeEvent) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

type MockDeadLetters struct{ mock.Mock }

var _ portssvc.DeadLetterSvcFacade = (*MockDeadLetters)(nil)

func (m *MockDeadLetters) Record(ctx context.Context, outcome domain.ChargeOutcome) (*domain.DeadLetter, error) {
	args := m.Called(ctx, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeadLetter), args.Error(1)
}

func (m *MockDeadLetters) ListDeadLetters(ctx context.Context, params dto.ListDeadLettersParams) (*dto.ListDeadLettersResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListDeadLettersResponse), args.Error(1)
}

func (m *MockDeadLetters) Replay(ctx context.Context, id string) (*domain.DeadLetter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeadLetter), args.Error(1)
}

type MockPrices struct{ mock.Mock }

var _ portssvc.PriceSvcFacade = (*MockPrices)(nil)

func (m *MockPrices) GetPrice(ctx context.Context, businessType string) (*domain.Price, error) {
	args := m.Called(ctx, businessType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Price), args.Error(1)
}

func (m *MockPrices) SetPrice(ctx context.Context, businessType string, req dto.SetPriceRequest) (*domain.Price, error) {
	args := m.Called(ctx, businessType, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Price), args.Error(1)
}

type MockUsers struct{ mock.Mock }

var _ portssvc.UserSvc = (*MockUsers)(nil)

func (m *MockUsers) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUsers) SyncUser(ctx context.Context, userID int64, req dto.SyncUserRequest) (*domain.User, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
