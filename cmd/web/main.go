// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command web is the entry point for the Yomira Accounts site.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Build the credential codec; connect to PostgreSQL and run migrations, or
//     fall back to the in-memory store.
//  4. Connect to Redis when configured.
//  5. Build the session store and templates.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-accounts/data/migrations"
	"github.com/taibuivan/yomira-accounts/internal/api"
	"github.com/taibuivan/yomira-accounts/internal/platform/config"
	"github.com/taibuivan/yomira-accounts/internal/platform/constants"
	"github.com/taibuivan/yomira-accounts/internal/platform/middleware"
	"github.com/taibuivan/yomira-accounts/internal/platform/migration"
	pgstore "github.com/taibuivan/yomira-accounts/internal/platform/postgres"
	redisstore "github.com/taibuivan/yomira-accounts/internal/platform/redis"
	"github.com/taibuivan/yomira-accounts/internal/platform/render"
	"github.com/taibuivan/yomira-accounts/internal/platform/sec"
	"github.com/taibuivan/yomira-accounts/internal/platform/session"
	"github.com/taibuivan/yomira-accounts/internal/users/account"
	"github.com/taibuivan/yomira-accounts/internal/users/auth"
	"github.com/taibuivan/yomira-accounts/web"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("session_backend", cfg.SessionBackend),
		slog.Bool("database", cfg.UsesDatabase()),
	)

	// Root context; cancelled on SIGINT/SIGTERM.
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Startup gets a 30s deadline so misconfiguration is caught quickly
	// rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	var health api.HealthDependencies

	// The hashing bound sizes both connection pools.
	hasher := sec.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency)

	// ── 3. Accounts store ─────────────────────────────────────────────────
	var users account.Repository
	if cfg.UsesDatabase() {
		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, pgstore.Sizing(hasher.Concurrency()), log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("postgres_pool_closing")
			pool.Close()
		}()

		must(log, migration.RunUp(cfg.DatabaseURL, migrations.FS, cfg.MigrationPath, log), "run migrations")

		users = account.NewPostgresRepository(pool)
		health.CheckDatabase = func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }
	} else {
		log.Warn("accounts_in_memory", slog.String("reason", "DATABASE_URL is not set"))
		users = account.NewMemoryRepository()
	}

	// ── 4. Redis ──────────────────────────────────────────────────────────
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, redisstore.Sizing(hasher.Concurrency()), log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("redis_client_closing")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_failed", slog.Any("error", cerr))
			}
		}()
		health.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	}

	// ── 5. Sessions, templates ────────────────────────────────────────────
	sessions, err := newSessionStore(cfg, rdb)
	must(log, err, "initialize session store")

	renderer, err := render.New(web.Templates())
	must(log, err, "parse templates")

	limiter := middleware.NewRateLimiter(constants.CredentialRateLimitRPS, constants.CredentialRateLimitBurst)
	go limiter.Run(rootCtx)

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(health, log)

	authService := auth.NewService(users, hasher)
	authHandler := auth.NewHandler(authService, renderer)

	server := api.NewServer(cfg, log,
		api.Dependencies{Sessions: sessions, Users: users, Limiter: limiter},
		api.Handlers{Liveness: liveness, Readiness: readiness, Auth: authHandler},
	)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_signal_received")
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("server_shutting_down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String(constants.FieldApp, constants.AppName))
}

// newSessionStore picks the configured session backend.
func newSessionStore(cfg *config.Config, rdb *redis.Client) (session.Store, error) {
	options := session.Options{
		TTL:    cfg.SessionTTL,
		Secure: cfg.SessionCookieSecure,
	}

	if cfg.SessionBackend == config.SessionBackendRedis {
		return session.NewRedisStore(rdb, options), nil
	}
	return session.NewCookieStore([]byte(cfg.SessionSecret), options)
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
