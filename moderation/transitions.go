// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package moderation

import (
	"errors"
	"fmt"
)

var ErrIllegalTransition = errors.New("illegal transition")

// TransitionError explains why an action is not allowed from a status.
// Message is safe to show to the moderator.
type TransitionError struct {
	From    Status
	Action  ActionType
	Message string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot apply %s to poll in status %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// NextStatus returns the status a poll moves to when action is applied.
// For restore_vote, prior is the status recorded before the poll was last
// disabled or hidden; pass "" when it is unknown.
func NextStatus(current Status, action ActionType, prior Status) (Status, error) {
	switch action {
	case ActionClose:
		if current != StatusActive {
			return "", &TransitionError{current, action, "Can only close active votes"}
		}
		return StatusClosed, nil

	case ActionDisable:
		switch current {
		case StatusDisabled:
			return "", &TransitionError{current, action, "Vote is already disabled"}
		case StatusHidden:
			return "", &TransitionError{current, action, "Cannot disable a hidden vote"}
		}
		return StatusDisabled, nil

	case ActionHide:
		if current == StatusHidden {
			return "", &TransitionError{current, action, "Vote is already hidden"}
		}
		return StatusHidden, nil

	case ActionRestore:
		if current != StatusDisabled && current != StatusHidden {
			return "", &TransitionError{current, action, "Can only restore disabled or hidden votes"}
		}
		return RestoreTarget(prior), nil

	case ActionDelete:
		return StatusHidden, nil
	}

	return "", fmt.Errorf("unknown action type %q", action)
}

// RestoreTarget picks where a restored poll goes. A prior status that is
// itself disabled, hidden, or unknown restores to draft; anything else
// reopens the poll as active.
func RestoreTarget(prior Status) Status {
	switch prior {
	case StatusDraft, StatusActive, StatusClosed:
		return StatusActive
	}
	return StatusDraft
}
