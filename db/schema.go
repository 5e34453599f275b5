// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dialect Dialect) error {
	jsonType := "TEXT"
	if dialect == DialectPostgres {
		jsonType = "JSONB"
	}

	_, err := db.Exec(strings.ReplaceAll(schema, "{{json}}", jsonType))
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    creator_name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft'
        CHECK (status IN ('draft', 'active', 'closed', 'disabled', 'hidden')),
    share_slug TEXT UNIQUE,
    closed_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_status ON poll(status);

-- Options
CREATE TABLE IF NOT EXISTS option (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    label TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_option_poll_id ON option(poll_id);

-- Ratings (one per option per voter, never updated)
CREATE TABLE IF NOT EXISTS rating (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    option_id TEXT NOT NULL REFERENCES option(id) ON DELETE CASCADE,
    voter_key TEXT NOT NULL,
    value INTEGER NOT NULL CHECK (value >= -2 AND value <= 2),
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (option_id, voter_key)
);

CREATE INDEX IF NOT EXISTS idx_rating_poll_id ON rating(poll_id);

-- Moderation flags
CREATE TABLE IF NOT EXISTS moderation_flag (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    flag_type TEXT NOT NULL
        CHECK (flag_type IN ('inappropriate_content', 'spam', 'harassment', 'copyright', 'other')),
    reason TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'approved', 'rejected', 'resolved')),
    flagger_id TEXT,
    reviewed_by TEXT,
    reviewed_at TIMESTAMP,
    review_notes TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_moderation_flag_poll ON moderation_flag(poll_id, flag_type, status);
CREATE INDEX IF NOT EXISTS idx_moderation_flag_status ON moderation_flag(status, created_at);

-- Moderation actions (append-only audit trail)
CREATE TABLE IF NOT EXISTS moderation_action (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    moderator_id TEXT NOT NULL,
    action_type TEXT NOT NULL,
    reason TEXT NOT NULL,
    previous_status TEXT NOT NULL,
    new_status TEXT NOT NULL,
    additional_data {{json}},
    created_at TIMESTAMP NOT NULL,
    UNIQUE (poll_id, seq)
);
`
