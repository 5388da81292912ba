package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// PollFunc runs one fetch-parse-reconcile-log cycle.
type PollFunc func(ctx context.Context) error

// Scheduler drives the monitoring loop on a fixed grid anchored to the top
// of the hour, so every run of the process lands on the same global slots.
type Scheduler struct {
	intervalMinutes int
	runOnce         bool
	isFatal         func(error) bool
	refreshCh       chan struct{}
	logger          *slog.Logger
}

// New builds a scheduler. isFatal decides which cycle errors terminate the
// loop; every other error is logged and the next slot is awaited. A nil
// isFatal treats all cycle errors as recoverable.
func New(intervalMinutes int, runOnce bool, isFatal func(error) bool, logger *slog.Logger) (*Scheduler, error) {
	if intervalMinutes <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", intervalMinutes)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		intervalMinutes: intervalMinutes,
		runOnce:         runOnce,
		isFatal:         isFatal,
		refreshCh:       make(chan struct{}, 1),
		logger:          logger,
	}, nil
}

// TriggerRefresh requests an immediate cycle without waiting for the next
// grid slot. Coalesces when a trigger is already pending.
func (s *Scheduler) TriggerRefresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

// NextWake computes the next wake time on the interval grid. An instant
// exactly on the grid (zero seconds) is its own wake time; the schedule is
// derived from wall clock, so a failed or slow cycle never shifts the grid.
func NextWake(now time.Time, intervalMinutes int) time.Time {
	remainder := now.Minute() % intervalMinutes
	base := now.Truncate(time.Minute)
	if remainder == 0 && now.Equal(base) {
		return now
	}
	return base.Add(time.Duration(intervalMinutes-remainder) * time.Minute)
}

// Run executes the polling loop until ctx is cancelled or a fatal cycle
// error occurs. In run-once mode a single poll executes immediately and its
// error is returned as-is.
func (s *Scheduler) Run(ctx context.Context, poll PollFunc) error {
	if s.runOnce {
		return poll(ctx)
	}

	s.logger.Info("monitor loop started", "interval_min", s.intervalMinutes)
	for {
		wake := NextWake(time.Now(), s.intervalMinutes)
		timer := time.NewTimer(time.Until(wake))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-s.refreshCh:
			timer.Stop()
			s.logger.Debug("manual refresh trigger")
		case <-timer.C:
		}

		if err := poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if s.isFatal != nil && s.isFatal(err) {
				s.logger.Error("fatal cycle error, stopping monitor", "err", err)
				return err
			}
			s.logger.Error("cycle failed, waiting for next slot", "err", err)
		}
	}
}
