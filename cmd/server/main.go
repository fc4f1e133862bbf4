package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ilawngbayan/storybooks/internal/common/auth"
	"github.com/ilawngbayan/storybooks/internal/common/cache"
	"github.com/ilawngbayan/storybooks/internal/common/database"
	commonhandlers "github.com/ilawngbayan/storybooks/internal/common/handlers"
	"github.com/ilawngbayan/storybooks/internal/common/health"
	"github.com/ilawngbayan/storybooks/internal/ops"
	"github.com/ilawngbayan/storybooks/internal/reading/catalog"
	"github.com/ilawngbayan/storybooks/internal/reading/events"
	"github.com/ilawngbayan/storybooks/internal/reading/handlers"
	"github.com/ilawngbayan/storybooks/internal/reading/repository"
	"github.com/ilawngbayan/storybooks/internal/reading/services"
	"github.com/ilawngbayan/storybooks/pkg/clock"
	"github.com/ilawngbayan/storybooks/pkg/config"
	"github.com/ilawngbayan/storybooks/pkg/logger"
	"github.com/ilawngbayan/storybooks/pkg/metrics"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Server.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	logConfiguration(cfg)

	if cfg.Database.Type == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := database.Open(cfg.Database, cfg.Server.Env)
	if err != nil {
		return err
	}
	repos := repository.NewRegistry(db)
	defer func() {
		if err := repos.Close(); err != nil {
			logger.Warn("database close error", zap.Error(err))
		}
	}()

	if err := repository.Migrate(db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seedCatalog(ctx, cfg.Reading.CatalogPath, repos); err != nil {
		return err
	}

	m := metrics.New()
	clk := clock.System{}

	hub := events.NewHub(m.StreamClients)
	hub.Start(ctx)
	defer hub.Stop()

	settingsCache := cache.New(time.Minute)
	defer settingsCache.Stop()

	sessions := services.NewSessionService(repos, clk, hub, m)
	progress := services.NewProgressService(repos, clk, hub, m)
	settings := services.NewSettingsService(repos, settingsCache, cfg.Reading.SettingsCacheTTL, clk)

	reaper := services.NewReaper(repos, clk, services.ReaperConfig{
		MaxDuration: cfg.Reading.SessionMaxDuration,
		Interval:    cfg.Reading.ReapInterval,
		Credit:      cfg.Reading.ReaperCredit,
	}, hub, m)
	reaper.Start(ctx)
	defer reaper.Stop()

	checker := health.NewHealthChecker(repos.GetDB(), version)
	checker.AddComponent("progress_stream", func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Healthy: true,
			Details: map[string]interface{}{"clients": hub.ClientCount()},
		}
	})
	checker.AddComponent("settings_cache", cacheHealth(settingsCache))

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	api := handlers.New(handlers.Deps{
		Sessions: sessions,
		Progress: progress,
		Books:    services.NewBookService(repos),
		Settings: settings,
		Tokens:   auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenExpiry, cfg.Auth.Issuer),
		Stream:   hub,
		Version:  version,
	})

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handlers.NewRouter(api, commonhandlers.NewHealthHandler(checker)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	opsServer := ops.NewServer(cfg.Server.Host, cfg.Server.OpsPort, m, checker)

	errCh := make(chan error, 2)
	for _, srv := range []*http.Server{apiServer, opsServer} {
		go func(srv *http.Server) {
			logger.Info("listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server failed", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	hub.Stop()
	for _, srv := range []*http.Server{apiServer, opsServer} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown error", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// cacheHealth reports the size and hit counters of a cache
func cacheHealth(c *cache.LocalCache) health.ComponentCheck {
	return func(context.Context) health.ComponentHealth {
		stats := c.Stats()
		return health.ComponentHealth{
			Healthy: true,
			Details: map[string]interface{}{
				"entries": c.Len(),
				"hits":    stats.Hits,
				"misses":  stats.Misses,
			},
		}
	}
}

// seedCatalog loads the YAML catalog when the file exists
func seedCatalog(ctx context.Context, path string, repos *repository.Registry) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Warn("catalog file not found, skipping seed", zap.String("path", path))
		return nil
	}

	c, err := catalog.Load(path)
	if err != nil {
		return err
	}
	if err := c.Seed(ctx, repos); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	logger.Info("catalog seeded", zap.Int("books", len(c.Books)), zap.Int("users", len(c.Users)))
	return nil
}
