// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultBulkLimit caps how many polls one bulk request may touch
const DefaultBulkLimit = 50

type ActionRequest struct {
	PollID         string
	Type           ActionType
	Reason         string
	ModeratorID    string
	AdditionalData map[string]any
}

type BulkRequest struct {
	PollIDs     []string
	Type        ActionType
	Reason      string
	ModeratorID string
}

type FlagRequest struct {
	PollID    string
	Type      FlagType
	Reason    string
	FlaggerID string // empty for anonymous flaggers
}

type ReviewRequest struct {
	FlagID     string
	ReviewerID string
	Status     FlagStatus
	Notes      string
}

// Service validates and applies moderation decisions
type Service struct {
	Store     Store
	Clock     Clock
	NewID     func() string
	BulkLimit int
	Logger    *slog.Logger
}

// ApplyAction moves a poll through the transition table and writes one
// audit row. Rejected actions change nothing.
func (s Service) ApplyAction(ctx context.Context, req ActionRequest) (Result, error) {
	req.PollID = strings.TrimSpace(req.PollID)
	req.Reason = strings.TrimSpace(req.Reason)
	req.ModeratorID = strings.TrimSpace(req.ModeratorID)

	if req.PollID == "" {
		return failure(KindInvalid, "Vote ID is required"), nil
	}
	if !req.Type.Valid() {
		return failure(KindInvalid, fmt.Sprintf("Unknown action type: %s", req.Type)), nil
	}
	if req.Reason == "" {
		return failure(KindInvalid, "Reason is required"), nil
	}
	if req.ModeratorID == "" {
		return failure(KindInvalid, "Moderator ID is required"), nil
	}

	var res Result
	err := s.Store.WithinTx(ctx, func(tx Tx) error {
		poll, err := tx.GetPollForUpdate(ctx, req.PollID)
		if errors.Is(err, ErrNotFound) {
			res = failure(KindNotFound, "Vote not found")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load poll: %w", err)
		}

		var prior Status
		if req.Type == ActionRestore {
			last, found, err := tx.LatestActionInto(ctx, poll.ID, poll.Status)
			if err != nil {
				return fmt.Errorf("failed to load last action: %w", err)
			}
			if found {
				prior = last.PreviousStatus
			}
		}

		next, err := NextStatus(poll.Status, req.Type, prior)
		var te *TransitionError
		if errors.As(err, &te) {
			res = failure(KindIllegalTransition, te.Message)
			return nil
		}
		if err != nil {
			return err
		}

		now := s.now()
		data := maps.Clone(req.AdditionalData)
		if req.Type == ActionDelete {
			if data == nil {
				data = make(map[string]any)
			}
			data["deleted"] = true
		}

		action := Action{
			ID:             s.newID(),
			PollID:         poll.ID,
			ModeratorID:    req.ModeratorID,
			Type:           req.Type,
			Reason:         req.Reason,
			PreviousStatus: poll.Status,
			NewStatus:      next,
			AdditionalData: data,
			CreatedAt:      now,
		}

		if err := tx.UpdatePollStatus(ctx, poll.ID, next, now); err != nil {
			return fmt.Errorf("failed to update poll status: %w", err)
		}
		if err := tx.InsertAction(ctx, action); err != nil {
			return fmt.Errorf("failed to record moderation action: %w", err)
		}

		res = Result{
			Success:        true,
			Message:        fmt.Sprintf("Vote status changed from %s to %s", poll.Status, next),
			ActionID:       action.ID,
			VoteID:         poll.ID,
			PreviousStatus: poll.Status,
			NewStatus:      next,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if res.Success {
		s.logger().Info("moderation action applied",
			"poll_id", res.VoteID,
			"action", req.Type,
			"moderator_id", req.ModeratorID,
			"previous_status", res.PreviousStatus,
			"new_status", res.NewStatus,
		)
	}
	return res, nil
}

// BulkApply runs ApplyAction for each poll in order. One failure does not
// stop the rest; a request over the limit is rejected before any work.
func (s Service) BulkApply(ctx context.Context, req BulkRequest) (BulkResult, error) {
	limit := s.bulkLimit()
	if len(req.PollIDs) > limit {
		return BulkResult{
			Kind:    KindCapacityExceeded,
			Message: fmt.Sprintf("Cannot process more than %d votes at once", limit),
			Results: []Result{},
		}, nil
	}
	if len(req.PollIDs) == 0 {
		return BulkResult{
			Kind:    KindInvalid,
			Message: "No votes specified",
			Results: []Result{},
		}, nil
	}

	out := BulkResult{Success: true, Results: make([]Result, 0, len(req.PollIDs))}
	for _, pollID := range req.PollIDs {
		if err := ctx.Err(); err != nil {
			return BulkResult{}, err
		}

		res, err := s.ApplyAction(ctx, ActionRequest{
			PollID:      pollID,
			Type:        req.Type,
			Reason:      req.Reason,
			ModeratorID: req.ModeratorID,
		})
		if err != nil {
			s.logger().Error("bulk moderation item failed", "poll_id", pollID, "error", err)
			res = Result{Success: false, Message: "Internal error", VoteID: pollID}
		}
		if res.VoteID == "" {
			res.VoteID = strings.TrimSpace(pollID)
		}

		out.Processed++
		if res.Success {
			out.SuccessCount++
		} else {
			out.FailureCount++
		}
		out.Results = append(out.Results, res)
	}

	out.Message = fmt.Sprintf("Processed %d votes: %d succeeded, %d failed",
		out.Processed, out.SuccessCount, out.FailureCount)

	s.logger().Info("bulk moderation completed",
		"action", req.Type,
		"moderator_id", req.ModeratorID,
		"processed", out.Processed,
		"success_count", out.SuccessCount,
		"failure_count", out.FailureCount,
	)
	return out, nil
}

// CreateFlag files a pending complaint against a poll
func (s Service) CreateFlag(ctx context.Context, req FlagRequest) (Result, error) {
	req.PollID = strings.TrimSpace(req.PollID)
	req.Reason = strings.TrimSpace(req.Reason)
	req.FlaggerID = strings.TrimSpace(req.FlaggerID)

	if !req.Type.Valid() {
		return failure(KindInvalid, fmt.Sprintf("Invalid flag type: %s", req.Type)), nil
	}
	if req.Reason == "" {
		return failure(KindInvalid, "Reason is required"), nil
	}

	var res Result
	err := s.Store.WithinTx(ctx, func(tx Tx) error {
		// Locking the poll row serializes concurrent flags from the same flagger
		poll, err := tx.GetPollForUpdate(ctx, req.PollID)
		if errors.Is(err, ErrNotFound) {
			res = failure(KindNotFound, "Vote not found")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load poll: %w", err)
		}

		// Anonymous flaggers cannot be told apart, so only identified ones are checked
		if req.FlaggerID != "" {
			dup, err := tx.PendingFlagExists(ctx, poll.ID, req.Type, req.FlaggerID)
			if err != nil {
				return fmt.Errorf("failed to check existing flags: %w", err)
			}
			if dup {
				res = failure(KindDuplicate, "You have already flagged this vote for the same reason")
				return nil
			}
		}

		now := s.now()
		flag := Flag{
			ID:        s.newID(),
			PollID:    poll.ID,
			Type:      req.Type,
			Reason:    req.Reason,
			Status:    FlagPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if req.FlaggerID != "" {
			flagger := req.FlaggerID
			flag.FlaggerID = &flagger
		}

		if err := tx.InsertFlag(ctx, flag); err != nil {
			return fmt.Errorf("failed to insert flag: %w", err)
		}

		res = Result{
			Success:    true,
			Message:    "Flag submitted for review",
			FlagID:     flag.ID,
			VoteID:     poll.ID,
			FlagStatus: FlagPending,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if res.Success {
		s.logger().Info("flag created", "flag_id", res.FlagID, "poll_id", res.VoteID, "flag_type", req.Type)
	}
	return res, nil
}

// ReviewFlag settles a pending flag exactly once
func (s Service) ReviewFlag(ctx context.Context, req ReviewRequest) (Result, error) {
	req.FlagID = strings.TrimSpace(req.FlagID)
	req.ReviewerID = strings.TrimSpace(req.ReviewerID)
	req.Notes = strings.TrimSpace(req.Notes)

	if !req.Status.Reviewable() {
		return failure(KindInvalid, "Review status must be approved, rejected or resolved"), nil
	}
	if req.ReviewerID == "" {
		return failure(KindInvalid, "Reviewer ID is required"), nil
	}

	var res Result
	err := s.Store.WithinTx(ctx, func(tx Tx) error {
		flag, err := tx.GetFlagForUpdate(ctx, req.FlagID)
		if errors.Is(err, ErrNotFound) {
			res = failure(KindNotFound, "Flag not found")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load flag: %w", err)
		}

		if flag.Status != FlagPending {
			res = failure(KindAlreadyReviewed, "Flag has already been reviewed")
			res.FlagID = flag.ID
			res.FlagStatus = flag.Status
			return nil
		}

		now := s.now()
		reviewer, notes := req.ReviewerID, req.Notes
		flag.Status = req.Status
		flag.ReviewedBy = &reviewer
		flag.ReviewedAt = &now
		flag.ReviewNotes = &notes
		flag.UpdatedAt = now

		if err := tx.UpdateFlagReview(ctx, flag); err != nil {
			return fmt.Errorf("failed to update flag: %w", err)
		}

		res = Result{
			Success:    true,
			Message:    fmt.Sprintf("Flag marked as %s", req.Status),
			FlagID:     flag.ID,
			VoteID:     flag.PollID,
			FlagStatus: req.Status,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if res.Success {
		s.logger().Info("flag reviewed", "flag_id", res.FlagID, "status", req.Status, "reviewer_id", req.ReviewerID)
	}
	return res, nil
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s Service) bulkLimit() int {
	if s.BulkLimit <= 0 || s.BulkLimit > DefaultBulkLimit {
		return DefaultBulkLimit
	}
	return s.BulkLimit
}

func (s Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
