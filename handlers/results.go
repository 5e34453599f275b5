// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/logo-vote/cliparse"
	"github.com/danielhkuo/logo-vote/metrics"
	"github.com/danielhkuo/logo-vote/middleware"
	"github.com/danielhkuo/logo-vote/models"
)

type ResultsHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	metrics *metrics.Metrics
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config, m *metrics.Metrics) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg, metrics: m}
}

// GetPoll handles GET /polls/{slug}
// Hidden polls are reported as missing
func (h *ResultsHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	poll, err := getPollBySlug(r.Context(), h.db, shareSlug)
	if err == sql.ErrNoRows || (err == nil && poll.Status == models.StatusHidden) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	options, err := getOptions(r.Context(), h.db, poll.ID)
	if err != nil {
		slog.Error("failed to query options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollWithOptions{
		Poll:    poll,
		Options: options,
	})
}

// GetResults handles GET /polls/{slug}/results
// Live results for active and closed polls; disabled polls return 403
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	poll, err := getPollBySlug(r.Context(), h.db, shareSlug)
	if err == sql.ErrNoRows || (err == nil && poll.Status == models.StatusHidden) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if poll.Status != models.StatusActive && poll.Status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are not available for this poll")
		return
	}

	h.writeResults(w, r, poll)
}

func (h *ResultsHandler) writeResults(w http.ResponseWriter, r *http.Request, poll models.Poll) {
	start := time.Now()
	res, err := ComputePollResults(r.Context(), h.db, poll.ID)
	if err != nil {
		slog.Error("failed to compute results", "error", err, "poll_id", poll.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
		return
	}
	h.metrics.ObserveResults(time.Since(start).Seconds())

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		Poll:    poll,
		Results: res,
	})
}
