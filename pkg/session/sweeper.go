package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/motherlink/internal/logging"
)

// DefaultIdleTimeout is how long a session may stay untouched before eviction.
const DefaultIdleTimeout = time.Hour

// Sweeper periodically evicts idle sessions.
// It ticks every quarter of the idle threshold.
type Sweeper struct {
	manager  *Manager
	idle     time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	onEvict  func(n int)
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepLogger sets the sweeper logger.
func WithSweepLogger(logger *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// WithSweepClock overrides time.Now.
func WithSweepClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		s.now = now
	}
}

// WithEvictCallback is invoked after each sweep with the number of evicted sessions.
func WithEvictCallback(fn func(n int)) SweeperOption {
	return func(s *Sweeper) {
		s.onEvict = fn
	}
}

// NewSweeper creates a sweeper for the given idle threshold.
func NewSweeper(manager *Manager, idle time.Duration, opts ...SweeperOption) *Sweeper {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	s := &Sweeper{
		manager:  manager,
		idle:     idle,
		interval: idle / 4,
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval is the time between two sweeps.
func (s *Sweeper) Interval() time.Duration {
	return s.interval
}

// Sweep runs one eviction pass.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	n, err := s.manager.EvictIdleSince(ctx, s.now().Add(-s.idle))
	if s.onEvict != nil && n > 0 {
		s.onEvict(n)
	}
	return n, err
}

// Run sweeps until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Debug("Session sweeper started", "idle", s.idle, "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Warn("Session sweep failed", "err", err)
				continue
			}
			if n > 0 {
				s.logger.Info("Evicted idle sessions", "count", n)
			}
		}
	}
}
