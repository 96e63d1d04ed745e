// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Komik HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration (.env in development, then the environment).
//  3. Connect to PostgreSQL (write and read tiers).
//  4. Run database migrations (idempotent).
//  5. Connect to Redis and build the listing cache.
//  6. Connect to object storage.
//  7. Wire domain services and HTTP handlers.
//  8. Schedule the orphan reaper when enabled.
//  9. Start HTTP server with graceful shutdown.
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

	"github.com/taibuivan/komik/internal/api"
	"github.com/taibuivan/komik/internal/core/chapter"
	"github.com/taibuivan/komik/internal/core/reaper"
	"github.com/taibuivan/komik/internal/core/reference"
	"github.com/taibuivan/komik/internal/core/series"
	"github.com/taibuivan/komik/internal/platform/cache"
	"github.com/taibuivan/komik/internal/platform/config"
	"github.com/taibuivan/komik/internal/platform/constants"
	"github.com/taibuivan/komik/internal/platform/migration"
	pgstore "github.com/taibuivan/komik/internal/platform/postgres"
	redisstore "github.com/taibuivan/komik/internal/platform/redis"
	"github.com/taibuivan/komik/internal/platform/sec"
	"github.com/taibuivan/komik/internal/platform/storage"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing")

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
	)

	// Process-lifetime context, cancelled on SIGINT/SIGTERM.
	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Startup deadline so misconfiguration is caught quickly rather than hanging.
	startupCtx, startupCancel := context.WithTimeout(appCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pools, err := pgstore.Open(startupCtx, cfg.DatabaseURL, cfg.DatabaseReadURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pools")
		pools.Close()
	}()

	// ── 4. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 5. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()
	listings := cache.New(redisstore.NewBackend(rdb), cfg.CacheTTL, log)

	// ── 6. Object Storage ─────────────────────────────────────────────────
	buckets := storage.Buckets{Covers: cfg.CoverBucket, Chapters: cfg.ChapterBucket}
	objects, err := storage.NewOSS(storage.OSSConfig{
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		AccessKeySecret: cfg.Storage.AccessKeySecret,
		PublicBaseURL:   cfg.StoragePublicBaseURL,
	}, log, buckets.Covers, buckets.Chapters)
	must(log, err, "connect to object storage")

	// ── 7. Token verification ─────────────────────────────────────────────
	verifier, err := sec.NewTokenVerifierFromFile(cfg.JWTPubKeyPath, cfg.AuthIssuer)
	must(log, err, "load token verifier")

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers([]api.Check{
		{Name: "postgres_write", Probe: func(ctx context.Context) error { return pgstore.Ping(ctx, pools.Write) }},
		{Name: "postgres_read", Probe: func(ctx context.Context) error { return pgstore.Ping(ctx, pools.Read) }},
		{Name: "redis", Probe: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }},
	}, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	referenceService := reference.NewService(reference.NewPostgresRepository(pools), listings, log)
	seriesService := series.NewService(series.NewPostgresRepository(pools), objects, buckets, listings, log)
	chapterService := chapter.NewService(chapter.NewPostgresRepository(pools), objects, buckets, listings, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Reference: reference.NewHandler(referenceService),
		Series:    series.NewHandler(seriesService),
		Chapter:   chapter.NewHandler(chapterService),
	}

	// ── 10. Orphan reaper ─────────────────────────────────────────────────
	if cfg.Reaper.Enabled {
		sweeper := reaper.New(reaper.NewPostgresRepository(pools), objects, buckets, reaper.Options{
			MinAge: cfg.Reaper.MinAge,
			DryRun: cfg.Reaper.DryRun,
		}, log)

		scheduler, err := sweeper.Schedule(appCtx, cfg.Reaper.Schedule)
		must(log, err, "schedule reaper")
		scheduler.Start()
		defer func() {
			<-scheduler.Stop().Done()
			log.Info("reaper_stopped")
		}()
	}

	// ── 11. HTTP Server ───────────────────────────────────────────────────
	server := api.NewServer(appCtx, cfg, log, verifier, handlers)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case <-appCtx.Done():
		log.Info("shutdown_signal_received")
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		return
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON logger; every entry carries the app name and version.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(
		slog.String(constants.FieldApp, constants.AppName),
		slog.String(constants.FieldVersion, constants.AppVersion),
	)
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
