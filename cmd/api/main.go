// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the real estate account API server.
//
// # Startup Sequence
//
//  1. Load configuration from .env and environment variables.
//  2. Initialize the structured logger (stdout, optional rotated file).
//  3. Open the account store: PostgreSQL with migrations, or in memory.
//  4. Connect to Redis when configured, for the token denylist.
//  5. Wire HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/realestate/internal/api"
	"github.com/taibuivan/realestate/internal/platform/config"
	"github.com/taibuivan/realestate/internal/platform/constants"
	"github.com/taibuivan/realestate/internal/platform/logging"
	"github.com/taibuivan/realestate/internal/platform/migration"
	pgstore "github.com/taibuivan/realestate/internal/platform/postgres"
	redisstore "github.com/taibuivan/realestate/internal/platform/redis"
	"github.com/taibuivan/realestate/internal/platform/sec"
	"github.com/taibuivan/realestate/internal/users/account"
	"github.com/taibuivan/realestate/internal/users/auth"
)

func main() {
	// ── 1. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "startup failure: load configuration:", err)
		os.Exit(1)
	}

	// ── 2. Logger ─────────────────────────────────────────────────────────
	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log, logCloser, err := logging.New(logging.Options{App: constants.AppName, Level: level, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, "startup failure: initialize logger:", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(log)

	log.Info("service_initializing",
		slog.String("version", constants.AppVersion),
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("store", cfg.Store),
	)

	// Root context for startup, so misconfiguration fails fast.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), constants.StartupTimeout)
	defer startupCancel()

	health := api.HealthDependencies{}

	// ── 3. Account Store ──────────────────────────────────────────────────
	var store account.Store
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("memory_store_enabled", slog.String("note", "accounts are lost on restart"))
		store = account.NewMemoryStore()
	default:
		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing postgres pool")
			pool.Close()
		}()

		health.CheckDatabase = func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }
		store = account.NewPostgresStore(pool)
	}

	// ── 4. Token Denylist ─────────────────────────────────────────────────
	var denylist auth.Denylist = auth.NewMemoryDenylist()
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer closeRedis(log, rdb)

		health.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
		denylist = auth.NewRedisDenylist(rdb)
	}

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.SigningKey, constants.AuthIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	must(log, err, "initialize token service")

	directory := account.NewDirectory(account.Config{
		Store:  store,
		Hasher: sec.NewBcryptHasher(cfg.BcryptCost),
		Logger: log,
	})
	authService := auth.NewService(directory, tokens, denylist, log)

	liveness, readiness := api.NewHealthHandlers(health, log)
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Accounts:  account.NewHandler(directory),
		Admin:     account.NewAdminHandler(directory),
		Auth:      auth.NewHandler(authService),
	}

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, api.Security{Verifier: tokens, Checker: directory}, handlers)

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

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		return
	}

	log.Info("server stopped cleanly")
}

func closeRedis(log *slog.Logger, client *redis.Client) {
	log.Info("closing redis client")
	if err := client.Close(); err != nil {
		log.Error("redis close error", slog.Any("error", err))
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
