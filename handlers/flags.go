// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/logo-vote/cliparse"
	"github.com/danielhkuo/logo-vote/metrics"
	"github.com/danielhkuo/logo-vote/middleware"
	"github.com/danielhkuo/logo-vote/models"
	"github.com/danielhkuo/logo-vote/moderation"
)

type FlagHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	svc     moderation.Service
	metrics *metrics.Metrics
}

func NewFlagHandler(db *sql.DB, cfg cliparse.Config, svc moderation.Service, m *metrics.Metrics) *FlagHandler {
	return &FlagHandler{db: db, cfg: cfg, svc: svc, metrics: m}
}

// CreateFlag handles POST /polls/{slug}/flags
// The flagger is the verified X-User-ID, anonymous otherwise
func (h *FlagHandler) CreateFlag(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var req models.CreateFlagRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var pollID, status string
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, status FROM poll WHERE share_slug = $1
	`, shareSlug).Scan(&pollID, &status)
	if err == sql.ErrNoRows || (err == nil && status == models.StatusHidden) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	res, err := h.svc.CreateFlag(r.Context(), moderation.FlagRequest{
		PollID:    pollID,
		Type:      moderation.FlagType(req.FlagType),
		Reason:    req.Reason,
		FlaggerID: middleware.VerifiedUserID(r, h.cfg.UserKeySalt),
	})
	if err != nil {
		h.metrics.ObserveFlag(flagTypeLabel(req.FlagType), metrics.OutcomeError)
		slog.Error("failed to create flag", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit flag")
		return
	}

	h.metrics.ObserveFlag(flagTypeLabel(req.FlagType), outcomeOf(res))
	writeResult(w, http.StatusCreated, res)
}

// flagTypeLabel keeps arbitrary client input out of metric labels
func flagTypeLabel(t string) string {
	if moderation.FlagType(t).Valid() {
		return t
	}
	return "invalid"
}
