// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the logo-vote API server.

logo-vote runs polls where voters rate each candidate logo from -2 to +2.
Results are aggregated live by average score, and moderators can close,
disable, hide, restore, or soft-delete polls with a full audit trail.

# Starting the Server

The server reads an optional .env file, then environment variables, then
CLI flags (flags win):

	DATABASE_URL=logovote.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file path or PostgreSQL connection string
  - ADMIN_KEY_SALT (-admin-salt): Secret for creator admin keys
  - POLL_SLUG_SALT (-slug-salt): Secret for share slug generation
  - MODERATOR_KEY_SALT (-moderator-salt): Secret for moderator keys
  - USER_KEY_SALT (-user-salt): Secret that signs X-User-ID via X-User-Key

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - REDIS_URL (-redis): Idempotency store; in-memory when unset
  - TRUST_PROXY (-trust-proxy): Read client IPs from forwarded headers (default: false)
  - LOG_LEVEL (-log-level): debug, info, warn, error (default: info)
  - BULK_LIMIT (-bulk-limit): Max polls per bulk action, 1 to 50 (default: 50)

# Architecture

  - results: Pure aggregation of ratings into ranked summaries
  - moderation: Status state machine, moderation service, flags
  - db: Connections, schema, and the transactional moderation store
  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, metrics, moderator auth, JSON helpers
  - idempotency: Replay store for bulk moderation (memory or Redis)
  - metrics: Prometheus collectors
  - models: Request/response types
  - auth: Keys, slugs, and voter identity
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
