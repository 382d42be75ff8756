package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"saldoya/internal/notify"
	"saldoya/internal/service"
	"saldoya/internal/yield"
)

type Scheduler struct {
	cron     *cron.Cron
	yield    *yield.Service
	svc      *service.Service
	notifier *notify.Notifier
}

func NewScheduler(yieldSvc *yield.Service, svc *service.Service, notifier *notify.Notifier) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		yield:    yieldSvc,
		svc:      svc,
		notifier: notifier,
	}
}

func (s *Scheduler) Start() error {
	// Yield sweep every hour. Accrual itself only pays whole 24h cycles,
	// the hourly cadence just bounds how stale a dashboard can get.
	if _, err := s.cron.AddFunc("@every 1h", s.sweepYields); err != nil {
		return fmt.Errorf("failed to add yield sweep job: %w", err)
	}

	// Pending request digest for the admins (daily at 09:00).
	if _, err := s.cron.AddFunc("0 9 * * *", s.sendPendingDigest); err != nil {
		return fmt.Errorf("failed to add pending digest job: %w", err)
	}

	// Abandoned recharge staging rows (every 15 minutes).
	if _, err := s.cron.AddFunc("@every 15m", s.purgeStagedRecharges); err != nil {
		return fmt.Errorf("failed to add staged recharge purge job: %w", err)
	}

	s.cron.Start()
	slog.Info("Cron scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	slog.Info("Cron scheduler stopped")
}

func (s *Scheduler) sweepYields() {
	slog.Info("Running yield sweep...")

	updated, err := s.yield.SweepAll(context.Background())
	if err != nil {
		slog.Error("Yield sweep failed", "error", err)
		return
	}
	slog.Info("Yield sweep completed", "users_updated", updated)
}

func (s *Scheduler) sendPendingDigest() {
	recharges, withdrawals, err := s.svc.PendingCounts(context.Background())
	if err != nil {
		slog.Error("Failed to count pending requests", "error", err)
		return
	}
	if recharges == 0 && withdrawals == 0 {
		return
	}
	s.notifier.PendingDigest(recharges, withdrawals)
}

func (s *Scheduler) purgeStagedRecharges() {
	purged, err := s.svc.PurgeStagedRecharges(context.Background())
	if err != nil {
		slog.Error("Failed to purge staged recharges", "error", err)
		return
	}
	if purged > 0 {
		slog.Info("Purged abandoned recharge staging rows", "count", purged)
	}
}
