// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// RateLimitSweepJob drops per-caller write limiters idle for longer than interval.
func RateLimitSweepJob(l *ratelimit.Limiter, interval time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "ratelimit-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			remaining := l.Sweep(interval, time.Now())
			logger.Debug("swept idle write limiters", zap.Int("remaining", remaining))
			return nil
		},
	}
}

// CacheWarmJob periodically copies the stored settings document into the
// content cache so reads on any instance rarely miss.
func CacheWarmJob(warm func(ctx context.Context) error, interval time.Duration) Job {
	return Job{
		Name:     "content-cache-warm",
		Interval: interval,
		Run:      warm,
	}
}
