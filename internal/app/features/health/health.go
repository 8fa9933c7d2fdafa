// internal/app/features/health/health.go
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Service states reported by Check.
const (
	StateOK          = "ok"
	StateUnavailable = "unavailable"
	StateDisabled    = "disabled"
)

type pingFunc func(ctx context.Context) error

// Handler provides health check endpoints.
//
// MongoDB and Redis are both optional. A dependency that is not configured is
// reported as disabled and never fails a check; content reads fall back to
// defaults without MongoDB, and without Redis they skip the cache.
type Handler struct {
	mongo  pingFunc
	redis  pingFunc
	logger *zap.Logger
}

// NewHandler creates a new health check Handler. Either client may be nil.
func NewHandler(mongoClient *mongo.Client, redisClient *redis.Client, logger *zap.Logger) *Handler {
	h := &Handler{logger: logger}
	if mongoClient != nil {
		h.mongo = func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		}
	}
	if redisClient != nil {
		h.redis = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return h
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes returns a chi.Router with health check routes mounted.
// Provides /health (full check), /health/ready, and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds the probe endpoints directly on the root router:
//   - /ready (or /readyz) - readiness probe
//   - /livez - liveness probe
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

func (h *Handler) probe(ctx context.Context, name string, ping pingFunc) string {
	if ping == nil {
		return StateDisabled
	}
	if err := ping(ctx); err != nil {
		h.logger.Warn("health check: ping failed",
			zap.String("service", name),
			zap.Error(err))
		return StateUnavailable
	}
	return StateOK
}

// Check reports the state of every dependency. Any configured dependency
// that does not answer makes the service degraded (503).
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := Response{
		Status: "ok",
		Services: map[string]string{
			"mongodb": h.probe(ctx, "mongodb", h.mongo),
			"redis":   h.probe(ctx, "redis", h.redis),
		},
	}
	for _, state := range resp.Services {
		if state == StateUnavailable {
			resp.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// Ready reports whether the service can accept traffic. Only a configured but
// unreachable MongoDB makes it not ready; the cache is optional.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if h.probe(ctx, "mongodb", h.mongo) == StateUnavailable {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// Live checks if the service is alive.
// Used by Kubernetes liveness probes.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"alive"}`))
}
