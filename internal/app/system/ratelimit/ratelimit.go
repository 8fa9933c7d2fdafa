// Package ratelimit throttles content writes per caller.
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SweepInterval is how often idle callers should be swept, and how long a
// caller must be idle to be dropped.
const SweepInterval = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per caller. Callers are keyed by
// signed-in email, falling back to client IP.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	rate     rate.Limit
	burst    int
	logger   *zap.Logger

	// OnReject, when set, is called for each rejected request.
	OnReject func(r *http.Request)
}

// New creates a Limiter allowing perMinute requests per caller with the given
// burst. A non-positive perMinute returns nil, which Middleware treats as
// unlimited.
func New(perMinute, burst int, logger *zap.Logger) *Limiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*entry),
		rate:     rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		logger:   logger,
	}
}

func (l *Limiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Middleware rejects callers over their rate with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := callerKey(r)
		if l.get(key, time.Now()).Allow() {
			next.ServeHTTP(w, r)
			return
		}

		l.logger.Warn("content write rate limit exceeded",
			zap.String("key", key),
			zap.String("path", r.URL.Path))
		if l.OnReject != nil {
			l.OnReject(r)
		}
		w.Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
		jsonutil.Fail(w, http.StatusTooManyRequests, "Too many requests")
	})
}

func (l *Limiter) retryAfterSeconds() int {
	return int(math.Ceil(1 / float64(l.rate)))
}

// Sweep drops limiters idle for longer than idle and returns how many remain.
// A fresh bucket starts full, so dropping an idle one never loosens the limit
// beyond burst.
func (l *Limiter) Sweep(idle time.Duration, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > idle {
			delete(l.limiters, k)
		}
	}
	return len(l.limiters)
}

func callerKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok && u.Email != "" {
		return "user:" + u.Email
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
