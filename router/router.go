// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/logo-vote/cliparse"
	"github.com/danielhkuo/logo-vote/db"
	"github.com/danielhkuo/logo-vote/handlers"
	"github.com/danielhkuo/logo-vote/idempotency"
	"github.com/danielhkuo/logo-vote/metrics"
	"github.com/danielhkuo/logo-vote/middleware"
	"github.com/danielhkuo/logo-vote/moderation"
)

// NewRouter wires every endpoint. idem and m may be nil; without an
// idempotency store Idempotency-Key headers are ignored.
func NewRouter(conn *sql.DB, cfg cliparse.Config, idem idempotency.Store, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		slog.Warn("unknown database type, assuming sqlite", "database_type", cfg.DatabaseType)
		dialect = db.DialectSQLite
	}
	store := db.NewStore(conn, dialect)
	svc := moderation.Service{
		Store:     store,
		BulkLimit: cfg.BulkLimit,
		Logger:    slog.Default().With("component", "moderation"),
	}

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(conn, cfg)
	votingHandler := handlers.NewVotingHandler(conn, cfg, m)
	resultsHandler := handlers.NewResultsHandler(conn, cfg, m)
	flagHandler := handlers.NewFlagHandler(conn, cfg, svc, m)
	modHandler := handlers.NewModerationHandler(conn, svc, store, idem, m)

	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithLogging(middleware.WithMetrics(m, pattern, h)))
	}
	moderated := func(pattern string, h http.HandlerFunc) {
		handle(pattern, middleware.RequireModerator(cfg.ModeratorKeySalt, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", m.Handler())

	// Poll management (creator operations)
	handle("POST /polls", pollHandler.CreatePoll)
	handle("GET /polls/{id}/admin", pollHandler.GetPollAdmin)
	handle("POST /polls/{id}/options", pollHandler.AddOption)
	handle("POST /polls/{id}/publish", pollHandler.PublishPoll)
	handle("POST /polls/{id}/close", pollHandler.ClosePoll)
	handle("DELETE /polls/{id}", pollHandler.DeletePoll)

	// Public, addressed by share slug
	handle("GET /polls/{slug}", resultsHandler.GetPoll)
	handle("GET /polls/{slug}/results", resultsHandler.GetResults)
	handle("POST /polls/{slug}/ratings", votingHandler.SubmitRatings)
	handle("POST /polls/{slug}/flags", flagHandler.CreateFlag)

	// Moderation
	moderated("POST /moderation/polls/bulk", modHandler.BulkApply)
	moderated("POST /moderation/polls/{id}/actions", modHandler.ApplyAction)
	moderated("GET /moderation/polls/{id}/actions", modHandler.ListActions)
	moderated("GET /moderation/polls/{id}/results", modHandler.GetResults)
	moderated("GET /moderation/flags", modHandler.ListFlags)
	moderated("POST /moderation/flags/{id}/review", modHandler.ReviewFlag)
	moderated("GET /moderation/stats", modHandler.Stats)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("logo-vote API v1"))
	})

	return mux
}
