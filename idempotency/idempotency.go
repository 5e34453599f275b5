// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultTTL is how long a replayable response is kept
	DefaultTTL = 24 * time.Hour

	// PendingTTL bounds how long a reservation blocks its key if the
	// process dies before completing it
	PendingTTL = 5 * time.Minute
)

var (
	// ErrConflict means the key was already used for a different request body
	ErrConflict = errors.New("idempotency key reused with a different request")

	// ErrInProgress means another request holding the same key has not finished
	ErrInProgress = errors.New("idempotency key is still being processed")
)

// Record is a stored response for one Idempotency-Key.
// A pending record reserves the key while the first request runs.
type Record struct {
	Key         string    `json:"key"`
	RequestHash string    `json:"request_hash"`
	Pending     bool      `json:"pending,omitempty"`
	Payload     []byte    `json:"payload,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Store keeps records until they expire.
//
// Reserve inserts record only if no live record holds its key; it returns
// the live record and false otherwise. Complete replaces a reservation with
// the final response. Release drops a reservation so the key can be retried.
type Store interface {
	Reserve(ctx context.Context, record Record, now time.Time) (existing Record, reserved bool, err error)
	Complete(ctx context.Context, record Record) error
	Release(ctx context.Context, key string) error
}

// HashRequest fingerprints a request so a reused key can be detected
func HashRequest(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to hash request: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Run executes exec once per key. A repeated call with the same request hash
// gets the stored payload back without running exec; a different hash under
// the same key fails with ErrConflict, and a repeat that arrives while the
// first call is still running fails with ErrInProgress. An empty key always
// runs exec.
func Run(ctx context.Context, store Store, key, requestHash string, ttl time.Duration, exec func() ([]byte, error)) (payload []byte, replayed bool, err error) {
	if key == "" || store == nil {
		payload, err = exec()
		return payload, false, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now().UTC()
	existing, reserved, err := store.Reserve(ctx, Record{
		Key:         key,
		RequestHash: requestHash,
		Pending:     true,
		ExpiresAt:   now.Add(min(PendingTTL, ttl)),
	}, now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if !reserved {
		switch {
		case existing.RequestHash != requestHash:
			return nil, false, ErrConflict
		case existing.Pending:
			return nil, false, ErrInProgress
		}
		return existing.Payload, true, nil
	}

	payload, err = exec()
	if err != nil {
		if relErr := store.Release(context.WithoutCancel(ctx), key); relErr != nil {
			return nil, false, errors.Join(err, fmt.Errorf("failed to release idempotency key: %w", relErr))
		}
		return nil, false, err
	}

	err = store.Complete(context.WithoutCancel(ctx), Record{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   time.Now().UTC().Add(ttl),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to save idempotency record: %w", err)
	}
	return payload, false, nil
}
