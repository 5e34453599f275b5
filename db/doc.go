// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database, creates the schema, and implements the
moderation store.

# Connecting

Open accepts a dialect and a connection URL and pings until the server
answers (five attempts, two seconds apart):

	conn, err := db.Open(ctx, db.DialectPostgres, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

Two dialects are supported:

  - postgres: via github.com/lib/pq, rows locked with SELECT ... FOR UPDATE
  - sqlite: via modernc.org/sqlite, one connection, BEGIN IMMEDIATE

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn, db.DialectSQLite); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - poll: Poll metadata and lifecycle state
  - option: Rateable options per poll
  - rating: One immutable rating per option per voter (-2 to 2)
  - moderation_flag: User complaints awaiting review
  - moderation_action: Append-only audit trail of status changes

# Relationships

	poll 1──* option
	option 1──* rating
	poll 1──* moderation_flag
	poll 1──* moderation_action

All foreign keys use ON DELETE CASCADE.

# Store

Store implements moderation.Store. Every service call runs inside one
transaction, and the poll or flag row it touches is locked first.
Audit rows carry a per-poll sequence number so history ordering never
depends on clock resolution.

Read-only helpers back the moderation API:

  - ListFlags: paged flag queue, oldest first
  - GetFlag: one flag by ID
  - ListActions: a poll's audit trail, newest first
  - Stats: poll counts by status, pending flags, total actions

IsUniqueViolation recognizes duplicate-key errors from either driver.
*/
package db
