// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/logo-vote/db"
	"github.com/danielhkuo/logo-vote/idempotency"
	"github.com/danielhkuo/logo-vote/metrics"
	"github.com/danielhkuo/logo-vote/middleware"
	"github.com/danielhkuo/logo-vote/models"
	"github.com/danielhkuo/logo-vote/moderation"
)

// Flag queue paging
const (
	DefaultFlagLimit = 20
	MaxFlagLimit     = 100
)

// HeaderIdempotentReplay is set on a bulk response served from the idempotency store
const HeaderIdempotentReplay = "Idempotent-Replayed"

type ModerationHandler struct {
	db      *sql.DB
	svc     moderation.Service
	store   *db.Store
	idem    idempotency.Store
	metrics *metrics.Metrics
}

func NewModerationHandler(conn *sql.DB, svc moderation.Service, store *db.Store, idem idempotency.Store, m *metrics.Metrics) *ModerationHandler {
	return &ModerationHandler{db: conn, svc: svc, store: store, idem: idem, metrics: m}
}

// statusForKind maps a rejected operation onto an HTTP status
func statusForKind(kind moderation.FailureKind) int {
	switch kind {
	case moderation.KindNotFound:
		return http.StatusNotFound
	case moderation.KindIllegalTransition, moderation.KindDuplicate, moderation.KindAlreadyReviewed:
		return http.StatusConflict
	default:
		// invalid and capacity_exceeded
		return http.StatusBadRequest
	}
}

func outcomeOf(res moderation.Result) string {
	if res.Success {
		return metrics.OutcomeSuccess
	}
	return metrics.OutcomeRejected
}

// writeResult responds with the result body, using okStatus on success
func writeResult(w http.ResponseWriter, okStatus int, res moderation.Result) {
	if res.Success {
		middleware.JSONResponse(w, okStatus, res)
		return
	}
	middleware.JSONResponse(w, statusForKind(res.Kind), res)
}

func actionLabel(a string) string {
	if moderation.ActionType(a).Valid() {
		return a
	}
	return "invalid"
}

// ApplyAction handles POST /moderation/polls/{id}/actions
func (h *ModerationHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	var req models.ModerationActionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := h.svc.ApplyAction(r.Context(), moderation.ActionRequest{
		PollID:         pollID,
		Type:           moderation.ActionType(req.ActionType),
		Reason:         req.Reason,
		ModeratorID:    middleware.ModeratorID(r.Context()),
		AdditionalData: req.AdditionalData,
	})
	if err != nil {
		h.metrics.ObserveAction(actionLabel(req.ActionType), metrics.OutcomeError)
		slog.Error("failed to apply moderation action", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to apply action")
		return
	}

	h.metrics.ObserveAction(actionLabel(req.ActionType), outcomeOf(res))
	writeResult(w, http.StatusOK, res)
}

// bulkEnvelope is what gets replayed for a repeated Idempotency-Key
type bulkEnvelope struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// bulkRequestHash ties an Idempotency-Key to the moderator and the body
func bulkRequestHash(moderatorID string, req models.BulkModerationRequest) (string, error) {
	return idempotency.HashRequest(struct {
		ModeratorID string                       `json:"moderator_id"`
		Request     models.BulkModerationRequest `json:"request"`
	}{moderatorID, req})
}

// BulkApply handles POST /moderation/polls/bulk
// An Idempotency-Key replays the first response for the same body.
func (h *ModerationHandler) BulkApply(w http.ResponseWriter, r *http.Request) {
	var req models.BulkModerationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	moderatorID := middleware.ModeratorID(r.Context())
	hash, err := bulkRequestHash(moderatorID, req)
	if err != nil {
		slog.Error("failed to hash bulk request", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	key := r.Header.Get(middleware.HeaderIdempotencyKey)
	payload, replayed, err := idempotency.Run(r.Context(), h.idem, key, hash, idempotency.DefaultTTL, func() ([]byte, error) {
		res, err := h.svc.BulkApply(r.Context(), moderation.BulkRequest{
			PollIDs:     req.VoteIDs,
			Type:        moderation.ActionType(req.ActionType),
			Reason:      req.Reason,
			ModeratorID: moderatorID,
		})
		if err != nil {
			return nil, err
		}

		for _, item := range res.Results {
			h.metrics.ObserveAction(actionLabel(req.ActionType), outcomeOf(item))
		}

		status := http.StatusOK
		if res.Kind != "" {
			status = statusForKind(res.Kind)
		}
		body, err := json.Marshal(res)
		if err != nil {
			return nil, err
		}
		return json.Marshal(bulkEnvelope{Status: status, Body: body})
	})
	if errors.Is(err, idempotency.ErrConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, "Idempotency-Key was already used for a different request")
		return
	}
	if errors.Is(err, idempotency.ErrInProgress) {
		middleware.ErrorResponse(w, http.StatusConflict, "A request with this Idempotency-Key is still in progress")
		return
	}
	if err != nil {
		slog.Error("failed to apply bulk moderation", "error", err, "moderator_id", moderatorID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to apply bulk action")
		return
	}

	var env bulkEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		slog.Error("failed to decode bulk response", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to apply bulk action")
		return
	}

	if replayed {
		w.Header().Set(HeaderIdempotentReplay, "true")
	}
	middleware.RawJSONResponse(w, env.Status, env.Body)
}

// ListActions handles GET /moderation/polls/{id}/actions
func (h *ModerationHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	if _, err := getPollByID(r.Context(), h.db, pollID); err != nil {
		if err == sql.ErrNoRows {
			middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
			return
		}
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	actions, err := h.store.ListActions(r.Context(), pollID)
	if err != nil {
		slog.Error("failed to list moderation actions", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ActionHistoryResponse{
		VoteID:  pollID,
		Actions: actions,
	})
}

// GetResults handles GET /moderation/polls/{id}/results
// Unlike the public endpoint this ignores the poll status
func (h *ModerationHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	poll, err := getPollByID(r.Context(), h.db, r.PathValue("id"))
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	res, err := ComputePollResults(r.Context(), h.db, poll.ID)
	if err != nil {
		slog.Error("failed to compute results", "error", err, "poll_id", poll.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		Poll:    poll,
		Results: res,
	})
}

// ListFlags handles GET /moderation/flags?status=&vote_id=&limit=&offset=
func (h *ModerationHandler) ListFlags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := moderation.FlagStatus(q.Get("status"))
	switch status {
	case "", moderation.FlagPending, moderation.FlagApproved, moderation.FlagRejected, moderation.FlagResolved:
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid status filter")
		return
	}

	limit, err := queryInt(q.Get("limit"), DefaultFlagLimit)
	if err != nil || limit < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	limit = min(limit, MaxFlagLimit)

	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	flags, err := h.store.ListFlags(r.Context(), db.FlagFilter{
		Status: status,
		PollID: q.Get("vote_id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		slog.Error("failed to list flags", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.FlagListResponse{
		Flags:  flags,
		Limit:  limit,
		Offset: offset,
	})
}

func queryInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// ReviewFlag handles POST /moderation/flags/{id}/review
func (h *ModerationHandler) ReviewFlag(w http.ResponseWriter, r *http.Request) {
	flagID := r.PathValue("id")

	var req models.ReviewFlagRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := h.svc.ReviewFlag(r.Context(), moderation.ReviewRequest{
		FlagID:     flagID,
		ReviewerID: middleware.ModeratorID(r.Context()),
		Status:     moderation.FlagStatus(req.Status),
		Notes:      req.Notes,
	})

	statusLabel := req.Status
	if !moderation.FlagStatus(req.Status).Reviewable() {
		statusLabel = "invalid"
	}
	if err != nil {
		h.metrics.ObserveReview(statusLabel, metrics.OutcomeError)
		slog.Error("failed to review flag", "error", err, "flag_id", flagID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to review flag")
		return
	}

	h.metrics.ObserveReview(statusLabel, outcomeOf(res))
	writeResult(w, http.StatusOK, res)
}

// Stats handles GET /moderation/stats
func (h *ModerationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		slog.Error("failed to load moderation stats", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, stats)
}
