package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ziadkadry99/repolens/internal/audit"
	"github.com/ziadkadry99/repolens/internal/bulk"
	"github.com/ziadkadry99/repolens/internal/cache"
	"github.com/ziadkadry99/repolens/internal/config"
	"github.com/ziadkadry99/repolens/internal/db"
	"github.com/ziadkadry99/repolens/internal/github"
	mcpserver "github.com/ziadkadry99/repolens/internal/mcp"
	"github.com/ziadkadry99/repolens/internal/pkgsearch"
	"github.com/ziadkadry99/repolens/internal/sanitize"
	"github.com/ziadkadry99/repolens/internal/tools"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `repolens init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger returns a text logger on stderr. Stdout is reserved for MCP
// protocol messages.
func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// app holds the wired dependencies shared by serve, server and run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *db.DB
	audit  *audit.Store
	mcp    *mcpserver.Server
}

// newApp opens the database and builds the tool server from cfg.
func newApp(cfg *config.Config) (*app, error) {
	logger := newLogger(cfg)
	for _, w := range cfg.Warnings() {
		logger.Warn("config", "warning", w)
	}

	a := &app{cfg: cfg, logger: logger}

	if cfg.Cache.Enabled || cfg.Audit.Enabled {
		database, err := db.Open(cfg.DatabasePath())
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.db = database
	}

	var responseCache *cache.Store
	if cfg.Cache.Enabled {
		responseCache = cache.NewStore(a.db, cfg.Cache.TTL, logger)
		if n, err := responseCache.Purge(context.Background()); err != nil {
			logger.Warn("purging response cache", "error", err)
		} else if n > 0 {
			logger.Debug("purged expired cache entries", "deleted", n)
		}
	}
	if cfg.Audit.Enabled {
		a.audit = audit.NewStore(a.db)
		a.pruneHistory(context.Background())
	}

	ghOpts := github.Options{
		BaseURL:           cfg.GitHub.APIURL,
		Token:             github.ResolveToken(cfg.GitHub.TokenEnv),
		UserAgent:         cfg.GitHub.UserAgent,
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Logger:            logger,
	}
	pkgOpts := pkgsearch.Options{
		NPMURL:    cfg.Packages.NPMURL,
		PyPIURL:   cfg.Packages.PyPIURL,
		UserAgent: cfg.GitHub.UserAgent,
		Logger:    logger,
	}
	if responseCache != nil {
		ghOpts.Cache = responseCache
		pkgOpts.Cache = responseCache
	}
	gh, err := github.New(ghOpts)
	if err != nil {
		a.Close()
		return nil, err
	}
	if !gh.Authenticated() {
		logger.Warn("no GitHub token found; unauthenticated requests are heavily rate limited", "token_env", cfg.GitHub.TokenEnv)
	}

	ts := tools.All(tools.Deps{GitHub: gh, Packages: pkgsearch.New(pkgOpts)})
	compactor := bulk.NewCompactor(bulk.ResponseSchemaV1, sanitize.New(), logger)
	engine := bulk.NewEngine(tools.NewRegistry(ts), compactor, bulk.EngineConfig{
		QueryTimeout: cfg.QueryTimeout,
		MaxQueries:   cfg.MaxQueries,
		Concurrency:  cfg.MaxConcurrency,
	}, logger)

	mcpserver.Version = Version
	deps := mcpserver.Deps{
		Tools:  ts,
		Engine: engine,
		Guard:  bulk.NewGuard(cfg.ToolTimeout, compactor, logger),
		Logger: logger,
	}
	if a.audit != nil {
		deps.Audit = a.audit
	}
	a.mcp = mcpserver.NewServer(deps)
	return a, nil
}

// pruneHistory drops invocation records older than the retention window.
func (a *app) pruneHistory(ctx context.Context) {
	if a.cfg.Audit.Retention <= 0 {
		return
	}
	n, err := a.audit.DeleteBefore(ctx, time.Now().Add(-a.cfg.Audit.Retention))
	if err != nil {
		a.logger.Warn("pruning invocation history", "error", err)
		return
	}
	if n > 0 {
		a.logger.Debug("pruned invocation history", "deleted", n)
	}
}

// Close releases the database.
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
