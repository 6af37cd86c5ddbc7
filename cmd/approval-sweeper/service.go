package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/contentops/approvalflow/pkg/eventbus"
	"github.com/contentops/approvalflow/pkg/lock"
	"github.com/contentops/approvalflow/pkg/persistence"
	"github.com/contentops/approvalflow/pkg/workflow"
)

// sweepLockKey serializes sweep runs across replicas. The TTL bounds how
// long a crashed replica can hold the slot.
const (
	sweepLockKey = "approvalflow:sweep"
	sweepLockTTL = 4 * time.Minute
)

// Service runs the sweeper on a cron cadence. Only one replica fires per
// tick: each run takes the sweep lock first, and replicas that lose the
// race skip the tick entirely.
type Service struct {
	id       string
	schedule string
	sweeper  *workflow.Sweeper
	locker   lock.Locker
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewService creates the sweeper service.
func NewService(
	id string,
	schedule string,
	p persistence.Persistence,
	publisher eventbus.EventPublisher,
	locker lock.Locker,
	logger *slog.Logger,
) *Service {
	return &Service{
		id:       id,
		schedule: schedule,
		sweeper:  workflow.NewSweeper(p, publisher, logger),
		locker:   locker,
		logger:   logger.With("module", "sweeper_service"),
	}
}

// Start validates the schedule, installs signal handling, and blocks until
// shutdown.
func (s *Service) Start(ctx context.Context) error {
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	sCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.logger.Info("Starting sweeper", "schedule", s.schedule)

	s.handleSignals(cancel)

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.runOnce(sCtx)
	}); err != nil {
		return fmt.Errorf("failed to schedule sweep job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Sweeper started successfully")

	<-sCtx.Done()
	s.logger.Info("Sweeper context cancelled, stopping...")

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	return nil
}

// handleSignals sets up signal handling for graceful shutdown.
func (s *Service) handleSignals(cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		s.logger.Info("Received signal", "signal", sig)
		s.logger.Info("Shutting down gracefully...")
		cancel()
	}()
}

// runOnce executes a single sweep tick under the cross-replica lock.
func (s *Service) runOnce(ctx context.Context) {
	acquired, err := s.locker.TryLock(ctx, sweepLockKey, sweepLockTTL)
	if err != nil {
		s.logger.Error("Failed to acquire sweep lock", "error", err)

		return
	}

	if !acquired {
		s.logger.Debug("Another replica holds the sweep lock, skipping tick")

		return
	}

	defer func() {
		if err := s.locker.Unlock(ctx, sweepLockKey); err != nil {
			s.logger.Error("Failed to release sweep lock", "error", err)
		}
	}()

	result, err := s.sweeper.Sweep(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("Sweep run failed", "error", err)

		return
	}

	if result.Escalations > 0 || result.Reminders > 0 {
		s.logger.Info("Sweep fired decisions",
			"escalations", result.Escalations,
			"reminders", result.Reminders)
	}
}
