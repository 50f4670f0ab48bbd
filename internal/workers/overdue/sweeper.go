// Package overdue runs the scheduled late-fee and overdue-status sweep.
package overdue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher is the fine operation the sweep runs.
type Refresher interface {
	RefreshOverdueFines(ctx context.Context) (int, error)
}

// Sweeper runs Refresher on a cron schedule. Runs never overlap.
type Sweeper struct {
	refresher Refresher
	schedule  string
	timeout   time.Duration
	logger    *slog.Logger
	cron      *cron.Cron

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// NewSweeper creates a sweeper. schedule accepts standard five-field specs and descriptors such as "@every 1h".
func NewSweeper(refresher Refresher, schedule string, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		refresher: refresher,
		schedule:  schedule,
		timeout:   10 * time.Minute,
		logger:    logger,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
}

// Start schedules the sweep and starts the cron loop.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) })
	if err != nil {
		return fmt.Errorf("invalid overdue sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("Overdue sweep scheduled", slog.String("schedule", s.schedule))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Overdue sweep stopped")
}

// RunOnce performs one sweep and returns the number of fines written back.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	updated, err := s.refresher.RefreshOverdueFines(ctx)

	s.mu.Lock()
	s.lastRun = started
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Overdue sweep failed",
			slog.Int("updated", updated),
			slog.Duration("took", time.Since(started)),
			slog.String("error", err.Error()))
		return updated
	}
	s.logger.Info("Overdue sweep finished",
		slog.Int("updated", updated),
		slog.Duration("took", time.Since(started)))
	return updated
}

// LastRun reports when the last sweep started and how it ended.
func (s *Sweeper) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}
