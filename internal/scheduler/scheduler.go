// Package scheduler runs the periodic ledger reconciliation sweep.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/middleware"
	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron           *cron.Cron
	reconciliation portssvc.ReconciliationSvc
	logger         *slog.Logger
	schedule       string
	timeout        time.Duration
}

// NewScheduler creates a new scheduler instance. An empty schedule disables the sweep.
func NewScheduler(reconciliation portssvc.ReconciliationSvc, logger *slog.Logger, schedule string) *Scheduler {
	logger = logger.With(slog.String("component", "scheduler"))
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	return &Scheduler{
		cron:           c,
		reconciliation: reconciliation,
		logger:         logger,
		schedule:       schedule,
		timeout:        30 * time.Minute,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("reconciliation sweep disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.ReconcileLedger); err != nil {
		s.logger.Error("failed to schedule reconciliation job", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("scheduled reconciliation job", slog.String("schedule", s.schedule))

	s.cron.Start()
	return nil
}

// ReconcileLedger sweeps every account once and logs the inconsistent ones.
func (s *Scheduler) ReconcileLedger() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	ctx = middleware.WithLogger(ctx, s.logger.With(slog.String("job", "reconcile_ledger")))

	started := time.Now()
	drifted, err := s.reconciliation.ReconcileAll(ctx)
	if err != nil {
		s.logger.Error("reconciliation sweep failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("reconciliation sweep finished",
		slog.Int("inconsistent_accounts", len(drifted)),
		slog.Duration("took", time.Since(started)))
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
