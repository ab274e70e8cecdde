// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the LMS HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load and validate configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Build the security primitives (token signer, password hasher).
//  7. Wire repositories, services and HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
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

	"github.com/taibuivan/lms/internal/api"
	"github.com/taibuivan/lms/internal/content"
	"github.com/taibuivan/lms/internal/platform/config"
	"github.com/taibuivan/lms/internal/platform/constants"
	"github.com/taibuivan/lms/internal/platform/metrics"
	"github.com/taibuivan/lms/internal/platform/migration"
	pgstore "github.com/taibuivan/lms/internal/platform/postgres"
	redisstore "github.com/taibuivan/lms/internal/platform/redis"
	"github.com/taibuivan/lms/internal/platform/sec"
	"github.com/taibuivan/lms/internal/users/account"
	"github.com/taibuivan/lms/internal/users/auth"
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
		slog.Bool("token_revocation", cfg.TokenRevocationEnabled),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lifetime context for background workers (IP limiter sweeper).
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, pgstore.Options{
		MaxConns:         cfg.DBMaxConns,
		MinConns:         cfg.DBMinConns,
		StatementTimeout: cfg.DBStatementTimeout,
	}, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, redisstore.Options{
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	}, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Security Primitives ────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.TokenConfig())
	must(log, err, "initialize token service")

	hasher, err := sec.NewHasher(cfg.PasswordPolicy(), cfg.BcryptCost)
	must(log, err, "initialize password hasher")

	appMetrics := metrics.New()
	must(log, appMetrics.ObservePool("postgres", func() metrics.PoolStat { return pgstore.Stat(pool) }), "observe postgres pool")
	must(log, appMetrics.ObservePool("redis", func() metrics.PoolStat { return redisstore.Stat(rdb) }), "observe redis pool")

	// A nil interface keeps revocation off; a typed nil would not.
	var denylist auth.TokenDenylist
	if cfg.TokenRevocationEnabled {
		denylist = auth.NewTokenDenylist(rdb)
	}

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	resourceRepository := auth.NewResourceRepository(pool)
	resetTokenRepository := auth.NewResetTokenRepository(rdb)
	accountRepository := account.NewAccountRepository(pool)

	authService := auth.NewService(userRepository, resetTokenRepository, hasher, tokens, auth.Options{
		FailureDelay: cfg.LoginFailureDelay,
		Denylist:     denylist,
		Metrics:      appMetrics,
	})
	gate := auth.NewGate(userRepository, resourceRepository, tokens, denylist, appMetrics)

	authHandler := auth.NewHandler(authService, gate, redisstore.NewFixedWindowLimiter(rdb), appMetrics, auth.RouteLimits{
		Login:         cfg.LoginRateLimit,
		Register:      cfg.RegisterRateLimit,
		PasswordReset: cfg.PasswordResetRateLimit,
		Window:        cfg.AuthRateLimitWindow,
	})
	accountHandler := account.NewHandler(account.NewService(accountRepository, authService), gate)
	contentHandler := content.NewHandler(gate, gate)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Account:   accountHandler,
		Content:   contentHandler,
	}

	server := api.NewServer(appCtx, cfg, log, appMetrics, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// newLogger builds the JSON logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
