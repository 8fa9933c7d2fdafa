// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings: ports, TLS, logging, CORS, timeouts.
type AppConfig struct {
	// MongoDB connection configuration.
	// An empty MongoURI means the content store is not configured: reads serve
	// default content and writes fail.
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie shared with the marketplace app that signs users in.
	SessionKey    string
	SessionName   string
	SessionDomain string
	SessionMaxAge time.Duration

	// CSRF protection for cookie-authenticated writes.
	CSRFEnabled bool
	CSRFKey     string

	// Editors
	ContentEditors []string          // allow-listed editor emails (normalized)
	ContentAPIKeys map[string]string // bearer key -> editor email

	// Content handling
	ContentSanitizeHTML   bool
	ContentHistoryLimit   int
	ContentWriteRate      int // writes per minute per editor; 0 disables limiting
	ContentWriteBurst     int
	ContentCORSOrigins    []string // empty allows any origin on read endpoints
	ContentCacheTTL       time.Duration
	ContentCacheWarmEvery time.Duration

	// TrustProxyHeaders takes the client IP from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that sets those headers.
	TrustProxyHeaders bool

	// Redis cache; empty disables caching.
	RedisURL string

	MetricsEnabled bool
}
