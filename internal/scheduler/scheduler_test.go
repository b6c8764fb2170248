package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockReconciliation struct{ mock.Mock }

func (m *mockReconciliation) Reconcile(ctx context.Context, userID int64) (*domain.ReconciliationReport, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*domain.ReconciliationReport), args.Error(1)
}

func (m *mockReconciliation) ReconcileAll(ctx context.Context) ([]domain.ReconciliationReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationReport), args.Error(1)
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewScheduler(new(mockReconciliation), slog.Default(), "not a cron spec")
	assert.Error(t, s.Start())
}

func TestStart_EmptyScheduleDisablesSweep(t *testing.T) {
	s := NewScheduler(new(mockReconciliation), slog.Default(), "")
	assert.NoError(t, s.Start())
	assert.Empty(t, s.cron.Entries())
}

func TestStart_RegistersJob(t *testing.T) {
	s := NewScheduler(new(mockReconciliation), slog.Default(), "@every 1h")
	assert.NoError(t, s.Start())
	defer s.Stop()
	assert.Len(t, s.cron.Entries(), 1)
}

func TestReconcileLedger(t *testing.T) {
	rec := new(mockReconciliation)
	rec.On("ReconcileAll", mock.Anything).Return([]domain.ReconciliationReport{{UserID: 1}}, nil).Once()
	rec.On("ReconcileAll", mock.Anything).Return(nil, errors.New("db down")).Once()

	s := NewScheduler(rec, slog.Default(), "@every 1h")
	s.ReconcileLedger()
	s.ReconcileLedger()

	rec.AssertNumberOfCalls(t, "ReconcileAll", 2)
}
