// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/logo-vote/moderation"
)

// Store persists moderation state with database/sql
type Store struct {
	db      *sql.DB
	dialect Dialect
}

func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// WithinTx implements moderation.Store
func (s *Store) WithinTx(ctx context.Context, fn func(tx moderation.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&storeTx{tx: tx, lock: s.lockClause()}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SQLite has no row locks; its transactions already hold the write lock
func (s *Store) lockClause() string {
	if s.dialect == DialectPostgres {
		return " FOR UPDATE"
	}
	return ""
}

type storeTx struct {
	tx   *sql.Tx
	lock string
}

func (t *storeTx) GetPollForUpdate(ctx context.Context, pollID string) (moderation.Poll, error) {
	var p moderation.Poll
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, status FROM poll WHERE id = $1`+t.lock, pollID,
	).Scan(&p.ID, &p.Status)
	if err == sql.ErrNoRows {
		return moderation.Poll{}, moderation.ErrNotFound
	}
	return p, err
}

func (t *storeTx) UpdatePollStatus(ctx context.Context, pollID string, status moderation.Status, now time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE poll SET status = $1, updated_at = $2 WHERE id = $3
	`, string(status), now, pollID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (t *storeTx) LatestActionInto(ctx context.Context, pollID string, status moderation.Status) (moderation.Action, bool, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+actionColumns+`
		FROM moderation_action
		WHERE poll_id = $1 AND new_status = $2
		ORDER BY seq DESC
		LIMIT 1
	`, pollID, string(status))

	a, err := scanAction(row)
	if err == sql.ErrNoRows {
		return moderation.Action{}, false, nil
	}
	if err != nil {
		return moderation.Action{}, false, err
	}
	return a, true, nil
}

func (t *storeTx) InsertAction(ctx context.Context, a moderation.Action) error {
	var data any
	if a.AdditionalData != nil {
		raw, err := json.Marshal(a.AdditionalData)
		if err != nil {
			return fmt.Errorf("failed to encode additional data: %w", err)
		}
		// string, not []byte: lib/pq would send []byte as bytea
		data = string(raw)
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO moderation_action
			(id, poll_id, seq, moderator_id, action_type, reason, previous_status, new_status, additional_data, created_at)
		VALUES ($1, $2,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM moderation_action WHERE poll_id = $2),
			$3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.PollID, a.ModeratorID, string(a.Type), a.Reason,
		string(a.PreviousStatus), string(a.NewStatus), data, a.CreatedAt)
	return err
}

func (t *storeTx) PendingFlagExists(ctx context.Context, pollID string, flagType moderation.FlagType, flaggerID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM moderation_flag
			WHERE poll_id = $1 AND flag_type = $2 AND flagger_id = $3 AND status = $4
		)
	`, pollID, string(flagType), flaggerID, string(moderation.FlagPending)).Scan(&exists)
	return exists, err
}

func (t *storeTx) InsertFlag(ctx context.Context, f moderation.Flag) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO moderation_flag (id, poll_id, flag_type, reason, status, flagger_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, f.ID, f.PollID, string(f.Type), f.Reason, string(f.Status), f.FlaggerID, f.CreatedAt, f.UpdatedAt)
	return err
}

func (t *storeTx) GetFlagForUpdate(ctx context.Context, flagID string) (moderation.Flag, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+flagColumns+` FROM moderation_flag WHERE id = $1`+t.lock, flagID)

	f, err := scanFlag(row)
	if err == sql.ErrNoRows {
		return moderation.Flag{}, moderation.ErrNotFound
	}
	return f, err
}

func (t *storeTx) UpdateFlagReview(ctx context.Context, f moderation.Flag) error {
	// The status guard keeps a review from ever overwriting another one
	res, err := t.tx.ExecContext(ctx, `
		UPDATE moderation_flag
		SET status = $1, reviewed_by = $2, reviewed_at = $3, review_notes = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`, string(f.Status), f.ReviewedBy, f.ReviewedAt, f.ReviewNotes, f.UpdatedAt, f.ID, string(moderation.FlagPending))
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

var errNoRowsAffected = errors.New("no rows affected")

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%w: expected 1, got %d", errNoRowsAffected, n)
	}
	return nil
}
