package tasks

import (
	"context"
	"time"

	"github.com/projectannie/contactd/internal/logging"
	"github.com/projectannie/contactd/internal/ratelimit"
)

// DefaultSweepInterval is used when no interval is configured
const DefaultSweepInterval = 5 * time.Minute

// RateLimitSweep periodically deletes expired rate limit windows. The memory
// store sweeps itself; this task exists for stores shared between instances.
type RateLimitSweep struct {
	store    ratelimit.Store
	interval time.Duration
	logger   *logging.Logger
}

// NewRateLimitSweep creates a new sweep task
func NewRateLimitSweep(store ratelimit.Store, interval time.Duration, logger *logging.Logger) *RateLimitSweep {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &RateLimitSweep{
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps once on startup and then every interval until ctx is done.
// Sweep failures are logged and retried at the next tick.
func (rs *RateLimitSweep) Run(ctx context.Context) error {
	rs.logger.Info("Starting rate limit sweep task (every %s)", rs.interval)

	rs.sweep(ctx)

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rs.logger.Info("Rate limit sweep task stopped")
			return nil
		case <-ticker.C:
			rs.sweep(ctx)
		}
	}
}

func (rs *RateLimitSweep) sweep(ctx context.Context) {
	removed, err := rs.store.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			rs.logger.Error("Rate limit sweep failed: %v", err)
		}
		return
	}
	if removed > 0 {
		rs.logger.Debug("Deleted %d expired rate limit windows", removed)
	}
}
