package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/heartmarshall/presence-dashboard/internal/adapter/gridfs"
	postgres "github.com/heartmarshall/presence-dashboard/internal/adapter/postgres"
	"github.com/heartmarshall/presence-dashboard/internal/adapter/postgres/table"
	"github.com/heartmarshall/presence-dashboard/internal/adapter/postgres/token"
	redisadapter "github.com/heartmarshall/presence-dashboard/internal/adapter/redis"
	"github.com/heartmarshall/presence-dashboard/internal/adapter/template"
	"github.com/heartmarshall/presence-dashboard/internal/auth"
	"github.com/heartmarshall/presence-dashboard/internal/config"
	"github.com/heartmarshall/presence-dashboard/internal/service/dashboard"
	"github.com/heartmarshall/presence-dashboard/internal/transport/middleware"
	"github.com/heartmarshall/presence-dashboard/internal/transport/rest"
)

// uploadsPerMinute bounds logo and certificate uploads per account.
const uploadsPerMinute = 20

// Run is the application entry point. It loads configuration, connects the
// stores, serves HTTP until ctx is cancelled and then shuts down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	// Postgres
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	defer pool.Close()

	if cfg.Database.MigrationsDir != "" {
		if err := migrate(ctx, logger, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
			return fmt.Errorf("app: %w", err)
		}
	}

	rows := table.New(pool)
	tokens := token.New(pool)
	tx := postgres.NewTxManager(pool)

	// Blob storage
	mongoClient, err := gridfs.Connect(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			logger.Warn("disconnect mongo", slog.String("error", err.Error()))
		}
	}()
	blobs := gridfs.New(mongoClient.Database(cfg.Storage.Database), cfg.Storage.PublicBaseURL)

	checks := []rest.HealthCheck{
		{Name: "database", Pinger: pool},
		{Name: "storage", Pinger: blobs},
	}

	// Section templates, optionally shared through redis
	var fetcher *template.Fetcher
	if cfg.Redis.RedisEnabled() {
		client := redisadapter.NewClient(cfg.Redis)
		defer client.Close()
		cache := redisadapter.NewTemplateCache(client, cfg.Templates.CacheTTL)
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("template cache unavailable", slog.String("error", err.Error()))
		}
		fetcher = template.NewFetcher(logger, cfg.Templates, cache)
		checks = append(checks, rest.HealthCheck{Name: "template_cache", Pinger: cache, Optional: true})
	} else {
		fetcher = template.NewFetcher(logger, cfg.Templates, nil)
	}

	// Auth
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	provider := auth.NewProvider(logger, jwtManager, tokens)

	// Dashboards
	registry := dashboard.NewRegistry(logger, dashboard.Deps{
		Auth:      provider,
		Rows:      rows,
		Tx:        tx,
		Blobs:     blobs,
		Templates: fetcher,
		Storage:   cfg.Storage,
		Dashboard: cfg.Dashboard,
		Notify:    cfg.Notify,
	})
	defer registry.Close()

	scheduler, err := newScheduler(ctx, logger, cfg.Dashboard.SweepSchedule, cfg.Dashboard.TokenPurgeSchedule, registry, tokens)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	limiter := middleware.NewRateLimiter(5 * time.Minute)
	defer limiter.Stop()

	handler := rest.NewRouter(rest.RouterConfig{
		Logger:      logger,
		CORS:        cfg.CORS,
		Health:      rest.NewHealthHandler(BuildVersion(), checks...),
		Storage:     rest.NewStorageHandler(blobs, logger),
		Dashboard:   rest.NewDashboardHandler(registry, maxUploadBody(cfg.Storage), logger),
		Auth:        middleware.Auth(provider),
		UploadLimit: limiter.Limit(uploadsPerMinute),
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	return nil
}

// maxUploadBody bounds a multipart upload request: the largest accepted
// file plus room for the form envelope.
func maxUploadBody(cfg config.StorageConfig) int64 {
	return max(cfg.MaxLogoBytes, cfg.MaxCertBytes) + 1<<20
}
