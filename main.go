// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/logo-vote/cliparse"
	"github.com/danielhkuo/logo-vote/db"
	"github.com/danielhkuo/logo-vote/idempotency"
	"github.com/danielhkuo/logo-vote/metrics"
	"github.com/danielhkuo/logo-vote/middleware"
	"github.com/danielhkuo/logo-vote/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := cliparse.LoadEnvFile(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	level, err := cliparse.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		slog.Error("Error parsing log level", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		slog.Error("invalid database type", "error", err)
		os.Exit(1)
	}

	dbConn, err := db.Open(ctx, dialect, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn, dialect); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "dialect", dialect)

	idem := openIdempotencyStore(ctx, cfg.RedisURL)
	if c, ok := idem.(io.Closer); ok {
		defer c.Close()
	}
	m := metrics.New(dbConn)

	server := http.Server{
		Handler:           middleware.CORS(router.NewRouter(dbConn, cfg, idem, m)),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed")
	}
}

// openIdempotencyStore prefers Redis so replays survive restarts and are
// shared between instances; without it records live in process memory.
func openIdempotencyStore(ctx context.Context, redisURL string) idempotency.Store {
	if redisURL == "" {
		slog.Info("REDIS_URL not set, idempotency records kept in memory")
		return idempotency.NewMemoryStore()
	}

	store, err := idempotency.NewRedisStore(ctx, redisURL)
	if err != nil {
		slog.Warn("redis unavailable, idempotency records kept in memory", "error", err)
		return idempotency.NewMemoryStore()
	}
	slog.Info("Idempotency records stored in redis")
	return store
}
