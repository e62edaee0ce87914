package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultSweepInterval is how often the expired-session sweep runs.
const DefaultSweepInterval = 24 * time.Hour

// Locker guards the sweep against overlapping runs across instances.
// Acquire returns false when another holder has the lock.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// NoopLock always acquires. Sufficient for single-instance deployments,
// where expired-row deletes are idempotent anyway.
type NoopLock struct{}

func (NoopLock) Acquire(context.Context) (bool, error) { return true, nil }
func (NoopLock) Release(context.Context) error         { return nil }

// Sweeper runs the expired-session sweep on a fixed schedule. Errors are
// logged and the sweep retries on the next tick.
type Sweeper struct {
	manager  *Manager
	lock     Locker
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a sweeper. A zero interval falls back to the default
// daily schedule; a nil lock falls back to NoopLock.
func NewSweeper(manager *Manager, lock Locker, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if lock == nil {
		lock = NoopLock{}
	}
	return &Sweeper{manager: manager, lock: lock, interval: interval, logger: logger}
}

// Start runs the sweep loop until ctx is cancelled. One sweep runs
// immediately on startup so a long interval does not delay the first pass.
func (s *Sweeper) Start(ctx context.Context) error {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	ok, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logger.Warn("sweep_lock_acquire_failed", zap.Error(err))
		return
	}
	if !ok {
		s.logger.Debug("sweep_skipped_lock_held")
		return
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logger.Warn("sweep_lock_release_failed", zap.Error(err))
		}
	}()

	count, err := s.manager.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("expired_session_sweep_failed", zap.Error(err))
		return
	}
	if count > 0 {
		s.logger.Info("expired_sessions_swept", zap.Int64("count", count))
	}
}
