// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/danielhkuo/logo-vote/moderation"
)

const actionColumns = `id, poll_id, moderator_id, action_type, reason,
	previous_status, new_status, additional_data, created_at`

const flagColumns = `id, poll_id, flag_type, reason, status, flagger_id,
	reviewed_by, reviewed_at, review_notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAction(row rowScanner) (moderation.Action, error) {
	var a moderation.Action
	var data []byte
	err := row.Scan(&a.ID, &a.PollID, &a.ModeratorID, &a.Type, &a.Reason,
		&a.PreviousStatus, &a.NewStatus, &data, &a.CreatedAt)
	if err != nil {
		return moderation.Action{}, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &a.AdditionalData); err != nil {
			return moderation.Action{}, fmt.Errorf("failed to decode additional data: %w", err)
		}
	}
	return a, nil
}

func scanFlag(row rowScanner) (moderation.Flag, error) {
	var f moderation.Flag
	var flagger, reviewer, notes sql.NullString
	var reviewedAt sql.NullTime
	err := row.Scan(&f.ID, &f.PollID, &f.Type, &f.Reason, &f.Status, &flagger,
		&reviewer, &reviewedAt, &notes, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return moderation.Flag{}, err
	}
	if flagger.Valid {
		f.FlaggerID = &flagger.String
	}
	if reviewer.Valid {
		f.ReviewedBy = &reviewer.String
	}
	if reviewedAt.Valid {
		f.ReviewedAt = &reviewedAt.Time
	}
	if notes.Valid {
		f.ReviewNotes = &notes.String
	}
	return f, nil
}

// FlagFilter selects a page of the flag queue
type FlagFilter struct {
	Status moderation.FlagStatus // empty means any status
	PollID string
	Limit  int
	Offset int
}

// ListFlags returns flags oldest first so the queue is worked in order
func (s *Store) ListFlags(ctx context.Context, filter FlagFilter) ([]moderation.Flag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+flagColumns+`
		FROM moderation_flag
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR poll_id = $2)
		ORDER BY created_at ASC, id ASC
		LIMIT $3 OFFSET $4
	`, string(filter.Status), filter.PollID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flags := []moderation.Flag{}
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

// GetFlag loads one flag outside of any transaction
func (s *Store) GetFlag(ctx context.Context, flagID string) (moderation.Flag, error) {
	f, err := scanFlag(s.db.QueryRowContext(ctx,
		`SELECT `+flagColumns+` FROM moderation_flag WHERE id = $1`, flagID))
	if err == sql.ErrNoRows {
		return moderation.Flag{}, moderation.ErrNotFound
	}
	return f, err
}

// ListActions returns the audit trail of a poll, newest first
func (s *Store) ListActions(ctx context.Context, pollID string) ([]moderation.Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+actionColumns+`
		FROM moderation_action
		WHERE poll_id = $1
		ORDER BY seq DESC
	`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := []moderation.Action{}
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// Stats is the moderation dashboard summary
type Stats struct {
	PollsByStatus map[string]int `json:"polls_by_status"`
	PendingFlags  int            `json:"pending_flags"`
	TotalActions  int            `json:"total_actions"`
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{PollsByStatus: map[string]int{
		string(moderation.StatusDraft):    0,
		string(moderation.StatusActive):   0,
		string(moderation.StatusClosed):   0,
		string(moderation.StatusDisabled): 0,
		string(moderation.StatusHidden):   0,
	}}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM poll GROUP BY status`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		stats.PollsByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM moderation_flag WHERE status = $1
	`, string(moderation.FlagPending)).Scan(&stats.PendingFlags)
	if err != nil {
		return Stats{}, err
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM moderation_action`).Scan(&stats.TotalActions)
	if err != nil {
		return Stats{}, err
	}

	return stats, nil
}
