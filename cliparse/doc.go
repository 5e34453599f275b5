// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: PostgreSQL URL or SQLite file path (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - AdminKeySalt: Secret for admin key HMAC (required)
  - PollSlugSalt: Secret for share slug generation (required)
  - ModeratorKeySalt: Secret for moderator key HMAC (required)
  - UserKeySalt: Secret for user key HMAC (required)
  - TrustProxy: Read client IPs from X-Forwarded-For/X-Real-IP (default: false)
  - RedisURL: Redis for idempotency records (optional, memory otherwise)
  - LogLevel: debug, info, warn, or error (default: info)
  - BulkLimit: Maximum polls per bulk moderation request, at most 50 (default: 50)

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type
	-redis           Redis URL
	-admin-salt      Admin key salt
	-slug-salt       Poll slug salt
	-moderator-salt  Moderator key salt
	-user-salt       User key salt
	-trust-proxy     Trust forwarded client IP headers
	-log-level       Log level
	-bulk-limit      Bulk request limit

# Environment Variables

Flags fall back to environment variables:

	PORT               → -p
	DATABASE_URL       → -d
	DATABASE_TYPE      → -t
	REDIS_URL          → -redis
	ADMIN_KEY_SALT     → -admin-salt
	POLL_SLUG_SALT     → -slug-salt
	MODERATOR_KEY_SALT → -moderator-salt
	USER_KEY_SALT      → -user-salt
	TRUST_PROXY        → -trust-proxy
	LOG_LEVEL          → -log-level
	BULK_LIMIT         → -bulk-limit

CLI flags take precedence over environment variables. LoadEnvFile reads
a .env file first without overriding variables that are already set.

# Validation

ParseFlags returns an error if required values are missing or malformed:

  - DATABASE_URL must be provided
  - ADMIN_KEY_SALT, POLL_SLUG_SALT, MODERATOR_KEY_SALT, USER_KEY_SALT must be provided
  - PORT and BULK_LIMIT must be integers, BULK_LIMIT between 1 and 50
  - TRUST_PROXY must be a boolean
  - LOG_LEVEL must be a known slog level

# Example

	// In main.go
	_ = cliparse.LoadEnvFile(".env")
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
*/
package cliparse
