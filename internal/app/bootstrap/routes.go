// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	contentapifeature "github.com/dalemusser/stratacontent/internal/app/features/contentapi"
	healthfeature "github.com/dalemusser/stratacontent/internal/app/features/health"
	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacontent/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// csrfCookieName avoids collisions with other services on the same domain.
const csrfCookieName = "stratacontent_csrf"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed.
//
// # Identity
//
// Editors are identified two ways:
//   - the marketplace session cookie (gorilla/sessions, shared session_key)
//   - a Bearer API key from content_api_keys, for scripts and CI
//
// Cookie-authenticated writes are CSRF protected. Bearer requests carry no
// ambient credential and skip CSRF.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Startup normally builds these; tests may call BuildHandler directly.
	c := comps
	if c == nil {
		c = newComponents(appCfg, deps, logger)
	}

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// Client IP from X-Forwarded-For / X-Real-IP; anonymous writers are
	// rate limited by IP. Clients can set these headers themselves, so they
	// are only honored behind a proxy that overwrites them.
	if appCfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Session middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// API key identity for requests without a session.
	r.Use(auth.APIKeyIdentity(appCfg.ContentAPIKeys, logger))

	if appCfg.CSRFEnabled {
		r.Use(csrfMiddleware(appCfg, secure, logger))
	} else {
		logger.Warn("CSRF protection disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	contentHandler := contentapifeature.NewHandler(c.svc, logger)
	r.Mount("/api/content", contentapifeature.Routes(contentHandler, c.limiter, appCfg.ContentCORSOrigins))

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	if appCfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.Fail(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r, nil
}

// csrfMiddleware wraps gorilla/csrf so that it only guards requests a browser
// could forge: unsafe requests riding on a session cookie. Safe requests
// still pass through it so GET responses can hand out a token.
func csrfMiddleware(appCfg AppConfig, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName(csrfCookieName),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			jsonutil.Fail(w, http.StatusForbidden, "CSRF token invalid or missing")
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	protect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	return func(next http.Handler) http.Handler {
		guarded := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !isSafeMethod(req.Method) && !cookieIdentity(req) {
				// Anonymous (answered 401 by the write path) or API key.
				next.ServeHTTP(w, req)
				return
			}
			if !secure {
				req = csrf.PlaintextHTTPRequest(req)
			}
			guarded.ServeHTTP(w, req)
		})
	}
}

// cookieIdentity reports whether the request was identified by the session
// cookie rather than by an API key.
func cookieIdentity(r *http.Request) bool {
	_, ok := auth.CurrentUser(r)
	return ok && !auth.IdentifiedByAPIKey(r)
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
