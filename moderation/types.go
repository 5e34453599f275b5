// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package moderation

import "time"

// Status is the lifecycle state of a poll
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusClosed   Status = "closed"
	StatusDisabled Status = "disabled"
	StatusHidden   Status = "hidden"
)

// Valid reports whether s is one of the defined statuses
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusClosed, StatusDisabled, StatusHidden:
		return true
	}
	return false
}

// ActionType is a moderator decision applied to a poll
type ActionType string

const (
	ActionClose   ActionType = "close_vote"
	ActionDisable ActionType = "disable_vote"
	ActionHide    ActionType = "hide_vote"
	ActionRestore ActionType = "restore_vote"
	ActionDelete  ActionType = "delete_vote"
)

// Valid reports whether a is a known action type
func (a ActionType) Valid() bool {
	switch a {
	case ActionClose, ActionDisable, ActionHide, ActionRestore, ActionDelete:
		return true
	}
	return false
}

// FlagType classifies a complaint
type FlagType string

const (
	FlagInappropriate FlagType = "inappropriate_content"
	FlagSpam          FlagType = "spam"
	FlagHarassment    FlagType = "harassment"
	FlagCopyright     FlagType = "copyright"
	FlagOther         FlagType = "other"
)

func (f FlagType) Valid() bool {
	switch f {
	case FlagInappropriate, FlagSpam, FlagHarassment, FlagCopyright, FlagOther:
		return true
	}
	return false
}

// FlagStatus is the review state of a flag
type FlagStatus string

const (
	FlagPending  FlagStatus = "pending"
	FlagApproved FlagStatus = "approved"
	FlagRejected FlagStatus = "rejected"
	FlagResolved FlagStatus = "resolved"
)

// Reviewable reports whether a review may move a flag into s
func (f FlagStatus) Reviewable() bool {
	return f == FlagApproved || f == FlagRejected || f == FlagResolved
}

// Poll is the slice of a poll the state machine needs
type Poll struct {
	ID     string
	Status Status
}

// Action is an append-only audit record
type Action struct {
	ID             string         `json:"id"`
	PollID         string         `json:"vote_id"`
	ModeratorID    string         `json:"moderator_id"`
	Type           ActionType     `json:"action_type"`
	Reason         string         `json:"reason"`
	PreviousStatus Status         `json:"previous_status"`
	NewStatus      Status         `json:"new_status"`
	AdditionalData map[string]any `json:"additional_data,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Flag is a complaint lodged against a poll
type Flag struct {
	ID          string     `json:"id"`
	PollID      string     `json:"vote_id"`
	Type        FlagType   `json:"flag_type"`
	Reason      string     `json:"reason"`
	Status      FlagStatus `json:"status"`
	FlaggerID   *string    `json:"flagger_id,omitempty"` // nil when anonymous
	ReviewedBy  *string    `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes *string    `json:"review_notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FailureKind tells the caller which rule rejected an operation
type FailureKind string

const (
	KindInvalid           FailureKind = "invalid"
	KindNotFound          FailureKind = "not_found"
	KindIllegalTransition FailureKind = "illegal_transition"
	KindDuplicate         FailureKind = "duplicate"
	KindAlreadyReviewed   FailureKind = "already_reviewed"
	KindCapacityExceeded  FailureKind = "capacity_exceeded"
)

// Result is the outcome of a single moderation operation.
// Rule violations are reported here, never as errors.
type Result struct {
	Success        bool        `json:"success"`
	Message        string      `json:"message"`
	Kind           FailureKind `json:"-"`
	ActionID       string      `json:"action_id,omitempty"`
	VoteID         string      `json:"vote_id,omitempty"`
	PreviousStatus Status      `json:"previous_status,omitempty"`
	NewStatus      Status      `json:"new_status,omitempty"`
	FlagID         string      `json:"flag_id,omitempty"`
	FlagStatus     FlagStatus  `json:"flag_status,omitempty"`
}

// BulkResult reports per-poll outcomes of a bulk action
type BulkResult struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message"`
	Kind         FailureKind `json:"-"`
	Processed    int         `json:"processed"`
	SuccessCount int         `json:"success_count"`
	FailureCount int         `json:"failure_count"`
	Results      []Result    `json:"results"`
}

func failure(kind FailureKind, message string) Result {
	return Result{Success: false, Kind: kind, Message: message}
}
