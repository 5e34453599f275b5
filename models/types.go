// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"time"

	"github.com/danielhkuo/logo-vote/moderation"
	"github.com/danielhkuo/logo-vote/results"
)

// Poll status constants
const (
	StatusDraft    = string(moderation.StatusDraft)
	StatusActive   = string(moderation.StatusActive)
	StatusClosed   = string(moderation.StatusClosed)
	StatusDisabled = string(moderation.StatusDisabled)
	StatusHidden   = string(moderation.StatusHidden)
)

// Rating range, inclusive
const (
	MinRating = -2
	MaxRating = 2
)

// Request types

type CreatePollRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatorName string `json:"creator_name"`
}

type AddOptionRequest struct {
	Label string `json:"label"`
}

// option_id -> rating (MinRating to MaxRating)
type SubmitRatingsRequest struct {
	Ratings map[string]int `json:"ratings"`
}

type CreateFlagRequest struct {
	FlagType string `json:"flag_type"`
	Reason   string `json:"reason"`
}

type ModerationActionRequest struct {
	ActionType     string         `json:"action_type"`
	Reason         string         `json:"reason"`
	AdditionalData map[string]any `json:"additional_data,omitempty"`
}

type BulkModerationRequest struct {
	VoteIDs    []string `json:"vote_ids"`
	ActionType string   `json:"action_type"`
	Reason     string   `json:"reason"`
}

type ReviewFlagRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// Response types

type CreatePollResponse struct {
	PollID   string `json:"poll_id"`
	AdminKey string `json:"admin_key"`
}

type AddOptionResponse struct {
	OptionID string `json:"option_id"`
}

type PublishPollResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

type ClosePollResponse struct {
	ClosedAt time.Time `json:"closed_at"`
}

type SubmitRatingsResponse struct {
	Accepted int    `json:"accepted"`
	Message  string `json:"message"`
}

type ResultsResponse struct {
	Poll    Poll            `json:"poll"`
	Results results.Results `json:"results"`
}

type ActionHistoryResponse struct {
	VoteID  string              `json:"vote_id"`
	Actions []moderation.Action `json:"actions"`
}

type FlagListResponse struct {
	Flags  []moderation.Flag `json:"flags"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// Domain types

type Poll struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatorName string     `json:"creator_name"`
	Status      string     `json:"status"`
	ShareSlug   *string    `json:"share_slug,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Option struct {
	ID     string `json:"id"`
	PollID string `json:"poll_id"`
	Label  string `json:"label"`
}

type PollWithOptions struct {
	Poll    Poll     `json:"poll"`
	Options []Option `json:"options"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
