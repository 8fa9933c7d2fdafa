package contentapi

import (
	"net/http"

	"github.com/dalemusser/stratacontent/internal/app/system/apicors"
	"github.com/dalemusser/stratacontent/internal/app/system/metrics"
	"github.com/dalemusser/stratacontent/internal/app/system/ratelimit"
	"github.com/dalemusser/stratacontent/internal/domain/defaults"
	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the content API endpoints.
//
// When mounted at /api/content:
//   - GET  /api/content                    - List page ids (public, CORS)
//   - GET  /api/content/{pageId}           - Read content (public, CORS)
//   - POST /api/content/{pageId}           - Write content (editor, rate limited)
//   - GET  /api/content/{pageId}/history   - Revision history (editor)
//
// Identity comes from middleware mounted above this router. corsOrigins
// restricts the read endpoints to those origins; empty allows any origin.
// A nil limiter disables write rate limiting.
func Routes(h *Handler, limiter *ratelimit.Limiter, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	if limiter != nil {
		limiter.OnReject = func(req *http.Request) {
			page := chi.URLParam(req, "pageId")
			if !defaults.IsValidPageID(page) {
				page = "unknown"
			}
			metrics.ContentWrites.WithLabelValues(page, metrics.ResultRateLimited).Inc()
		}
	}

	r.Group(func(pr chi.Router) {
		pr.Use(apicors.MiddlewareWithOrigins(corsOrigins...))
		pr.Get("/", h.ListHandler)
		pr.Get("/{pageId}", h.GetHandler)
		pr.Options("/", noContent)
		pr.Options("/{pageId}", noContent)
	})

	r.With(limiter.Middleware).Post("/{pageId}", h.UpdateHandler)
	r.Get("/{pageId}/history", h.HistoryHandler)

	return r
}

// noContent gives OPTIONS a route so the CORS middleware can answer preflight.
func noContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
