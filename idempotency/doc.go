// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package idempotency replays responses for requests retried with the same
// Idempotency-Key header. Records live in Redis when REDIS_URL is set and
// in process memory otherwise.
//
// A key is reserved before the request runs, so concurrent retries see
// ErrInProgress instead of running the work twice.
package idempotency
