// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratacontent/internal/app/store/contentcache"
	pagecontentstore "github.com/dalemusser/stratacontent/internal/app/store/pagecontent"
	revisionstore "github.com/dalemusser/stratacontent/internal/app/store/revisions"
	"github.com/dalemusser/stratacontent/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratacontent/internal/app/system/pagecontent"
	"github.com/dalemusser/stratacontent/internal/app/system/ratelimit"
	"github.com/dalemusser/stratacontent/internal/app/system/tasks"
	"github.com/dalemusser/stratacontent/internal/domain/defaults"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It checks the compiled-in default content table, builds the content
// service, warms the cache once, and starts the background jobs.
//
// Returning a non-nil error will abort startup and prevent the server from
// starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := defaults.Verify(); err != nil {
		logger.Error("default content table is incomplete", zap.Error(err))
		return fmt.Errorf("default content: %w", err)
	}

	comps = newComponents(appCfg, deps, logger)

	if err := comps.svc.WarmCache(ctx); err != nil {
		// Not fatal: the first read loads from MongoDB and fills the cache.
		logger.Warn("initial content cache warm failed", zap.Error(err))
	}

	startTaskRunner(appCfg, deps, comps, logger)
	return nil
}

// components are the long-lived content objects shared by Startup (background
// jobs) and BuildHandler (HTTP routes).
type components struct {
	svc     *pagecontent.Service
	limiter *ratelimit.Limiter
}

// comps is set by Startup and reused by BuildHandler.
var comps *components

// newComponents wires the content service to whichever backends ConnectDB
// produced. A nil MongoDatabase leaves the repository unset, which the
// service treats as "store not configured".
func newComponents(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *components {
	opts := pagecontent.Options{
		Policy:       pagecontent.NewAllowList(appCfg.ContentEditors...),
		HistoryLimit: appCfg.ContentHistoryLimit,
	}
	if deps.MongoDatabase != nil {
		opts.Repository = pagecontentstore.New(deps.MongoDatabase)
		opts.Revisions = revisionstore.New(deps.MongoDatabase)
	}
	if deps.Redis != nil {
		opts.Cache = contentcache.New(deps.Redis, appCfg.ContentCacheTTL)
	}
	if appCfg.ContentSanitizeHTML {
		opts.Sanitize = htmlsanitize.SanitizeTree
	}

	logger.Info("content service configured",
		zap.Bool("store", opts.Repository != nil),
		zap.Bool("cache", opts.Cache != nil),
		zap.Int("editors", len(appCfg.ContentEditors)),
		zap.Int("api_keys", len(appCfg.ContentAPIKeys)),
		zap.Bool("sanitize_html", appCfg.ContentSanitizeHTML),
	)

	return &components{
		svc:     pagecontent.New(opts, logger),
		limiter: ratelimit.New(appCfg.ContentWriteRate, appCfg.ContentWriteBurst, logger),
	}
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner registers the background jobs that apply to this
// configuration and starts them.
func startTaskRunner(appCfg AppConfig, deps DBDeps, c *components, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	if c.limiter != nil {
		taskRunner.Register(tasks.RateLimitSweepJob(c.limiter, ratelimit.SweepInterval, logger))
	}
	if deps.MongoDatabase != nil && deps.Redis != nil && appCfg.ContentCacheWarmEvery > 0 {
		taskRunner.Register(tasks.CacheWarmJob(c.svc.WarmCache, appCfg.ContentCacheWarmEvery))
	}

	// The startup context ends once Startup returns; jobs live until Shutdown.
	taskRunner.Start(context.Background())
}
