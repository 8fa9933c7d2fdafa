// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/dalemusser/stratacontent/internal/app/system/normalize"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATACONTENT"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, content_editors, etc.
//   - Environment variables: STRATACONTENT_MONGO_URI, STRATACONTENT_CONTENT_EDITORS, etc.
//   - Command-line flags: --mongo_uri, --content_editors, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI (empty: content store not configured, defaults are served)"},
	{Name: "mongo_database", Default: "stratacontent", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Session cookie issued by the marketplace app
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key shared with the marketplace app"},
	{Name: "session_name", Default: auth.DefaultSessionName, Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie max age (e.g., 24h, 720h, 30m)"},

	{Name: "csrf_enabled", Default: true, Desc: "Require a CSRF token on cookie-authenticated writes"},
	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},

	// Editors
	{Name: "content_editors", Default: "", Desc: "Comma-separated emails allowed to edit page content"},
	{Name: "content_api_keys", Default: "", Desc: "Comma-separated key=email pairs for Bearer-token editors"},

	// Content handling
	{Name: "content_sanitize_html", Default: false, Desc: "Sanitize markup fields (html, *Html, *HTML, *_html) in content payloads before saving; other fields are stored verbatim"},
	{Name: "content_history_limit", Default: 50, Desc: "Maximum revisions returned by the history endpoint"},
	{Name: "content_write_rate", Default: 30, Desc: "Content writes allowed per minute per editor (0 disables)"},
	{Name: "content_write_burst", Default: 10, Desc: "Burst size for content writes"},
	{Name: "content_cors_origins", Default: "", Desc: "Comma-separated origins allowed to read content (blank: any origin)"},
	{Name: "content_cache_ttl", Default: "5m", Desc: "TTL of the Redis content cache"},
	{Name: "content_cache_warm_interval", Default: "1m", Desc: "How often the content cache is refreshed from MongoDB"},

	{Name: "trust_proxy_headers", Default: false, Desc: "Take the client IP from X-Forwarded-For/X-Real-IP (enable only behind a proxy that sets them)"},

	{Name: "redis_url", Default: "", Desc: "Redis URL for the content cache (blank disables caching)"},
	{Name: "metrics_enabled", Default: true, Desc: "Expose Prometheus metrics at /metrics"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATACONTENT_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         strings.TrimSpace(appValues.String("mongo_uri")),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		CSRFEnabled: appValues.Bool("csrf_enabled"),
		CSRFKey:     appValues.String("csrf_key"),

		ContentEditors: normalize.EmailList(appValues.String("content_editors")),
		ContentAPIKeys: auth.ParseAPIKeys(appValues.String("content_api_keys")),

		ContentSanitizeHTML:   appValues.Bool("content_sanitize_html"),
		ContentHistoryLimit:   appValues.Int("content_history_limit"),
		ContentWriteRate:      appValues.Int("content_write_rate"),
		ContentWriteBurst:     appValues.Int("content_write_burst"),
		ContentCORSOrigins:    splitList(appValues.String("content_cors_origins")),
		ContentCacheTTL:       appValues.Duration("content_cache_ttl", 5*time.Minute),
		ContentCacheWarmEvery: appValues.Duration("content_cache_warm_interval", time.Minute),

		TrustProxyHeaders: appValues.Bool("trust_proxy_headers"),

		RedisURL:       strings.TrimSpace(appValues.String("redis_url")),
		MetricsEnabled: appValues.Bool("metrics_enabled"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.MongoURI != "" {
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	} else {
		logger.Warn("mongo_uri is empty: content store not configured, serving default content only")
	}

	if appCfg.RedisURL != "" {
		if _, err := redis.ParseURL(appCfg.RedisURL); err != nil {
			logger.Error("invalid Redis URL", zap.Error(err))
			return fmt.Errorf("invalid Redis URL: %w", err)
		}
	}

	if appCfg.CSRFEnabled && coreCfg.Env == "prod" && len(appCfg.CSRFKey) < 32 {
		return fmt.Errorf("csrf_key must be at least 32 characters in production")
	}

	if len(appCfg.ContentEditors) == 0 {
		logger.Warn("content_editors is empty: every content write will be rejected")
	}

	return nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
