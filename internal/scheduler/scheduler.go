package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Refresher re-reads state that other devices may have changed.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

func NewScheduler(refresher Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		timeout:   time.Minute,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start refreshes immediately and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runRefresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runRefresh(ctx)
		}
	}
}

func (s *Scheduler) runRefresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.refresher.Refresh(refreshCtx); err != nil {
		s.logger.Error("refresh failed", "error", err)
		return
	}
	s.logger.Debug("refresh completed", "duration", time.Since(start))
}
