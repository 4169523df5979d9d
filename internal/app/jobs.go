package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type idleEvicter interface {
	EvictIdle(now time.Time) int
}

type tokenPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// newScheduler registers the background jobs: idle dashboard eviction and
// revoked token cleanup. The caller starts and stops it.
func newScheduler(ctx context.Context, logger *slog.Logger, sweep, purge string, dashboards idleEvicter, tokens tokenPurger) (*cron.Cron, error) {
	log := logger.With("component", "scheduler")
	c := cron.New()

	if _, err := c.AddFunc(sweep, func() {
		if n := dashboards.EvictIdle(time.Now()); n > 0 {
			log.Info("idle dashboards evicted", slog.Int("count", n))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule sweep %q: %w", sweep, err)
	}

	if _, err := c.AddFunc(purge, func() {
		n, err := tokens.DeleteExpired(ctx, time.Now())
		if err != nil {
			log.Error("purge revoked tokens", slog.String("error", err.Error()))
			return
		}
		log.Info("revoked tokens purged", slog.Int64("count", n))
	}); err != nil {
		return nil, fmt.Errorf("schedule token purge %q: %w", purge, err)
	}

	return c, nil
}
