// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/danielhkuo/logo-vote/auth"
	"github.com/danielhkuo/logo-vote/cliparse"
	"github.com/danielhkuo/logo-vote/db"
	"github.com/danielhkuo/logo-vote/metrics"
	"github.com/danielhkuo/logo-vote/middleware"
	"github.com/danielhkuo/logo-vote/models"
)

type VotingHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	metrics *metrics.Metrics
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config, m *metrics.Metrics) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg, metrics: m}
}

// SubmitRatings handles POST /polls/{slug}/ratings
// Each voter rates each option at most once; ratings cannot be changed.
func (h *VotingHandler) SubmitRatings(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var req models.SubmitRatingsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Ratings) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "ratings cannot be empty")
		return
	}

	// Sorted so validation errors and inserts are deterministic
	optionIDs := make([]string, 0, len(req.Ratings))
	for optionID := range req.Ratings {
		optionIDs = append(optionIDs, optionID)
	}
	slices.Sort(optionIDs)

	for _, optionID := range optionIDs {
		value := req.Ratings[optionID]
		if value < models.MinRating || value > models.MaxRating {
			middleware.ErrorResponse(w, http.StatusBadRequest,
				fmt.Sprintf("rating for %s must be between %d and %d", optionID, models.MinRating, models.MaxRating))
			return
		}
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

	if poll.Status != models.StatusActive {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not open for voting")
		return
	}

	options, err := getOptions(r.Context(), h.db, poll.ID)
	if err != nil {
		slog.Error("failed to query options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	validOptions := make(map[string]bool, len(options))
	for _, opt := range options {
		validOptions[opt.ID] = true
	}
	for _, optionID := range optionIDs {
		if !validOptions[optionID] {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid option_id: "+optionID)
			return
		}
	}

	voterKey := auth.VoterKey(
		middleware.VerifiedUserID(r, h.cfg.UserKeySalt),
		middleware.GetClientIP(r, h.cfg.TrustProxy),
		h.cfg.AdminKeySalt,
	)

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, optionID := range optionIDs {
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO rating (poll_id, option_id, voter_key, value, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, poll.ID, optionID, voterKey, req.Ratings[optionID], now)

		if db.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "You have already rated option "+optionID)
			return
		}
		if err != nil {
			slog.Error("failed to insert rating", "error", err, "poll_id", poll.ID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save ratings")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save ratings")
		return
	}

	h.metrics.AddRatings(len(optionIDs))
	slog.Info("ratings submitted", "poll_id", poll.ID, "count", len(optionIDs))

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitRatingsResponse{
		Accepted: len(optionIDs),
		Message:  "Ratings submitted successfully",
	})
}
