// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package moderation

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Tx lookups for missing rows
var ErrNotFound = errors.New("not found")

type Clock interface {
	Now() time.Time
}

// Store runs fn inside one transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of reads and writes the service performs atomically.
// The *ForUpdate lookups must lock the row until the transaction ends.
type Tx interface {
	GetPollForUpdate(ctx context.Context, pollID string) (Poll, error)
	UpdatePollStatus(ctx context.Context, pollID string, status Status, now time.Time) error
	LatestActionInto(ctx context.Context, pollID string, status Status) (Action, bool, error)
	InsertAction(ctx context.Context, action Action) error

	PendingFlagExists(ctx context.Context, pollID string, flagType FlagType, flaggerID string) (bool, error)
	InsertFlag(ctx context.Context, flag Flag) error
	GetFlagForUpdate(ctx context.Context, flagID string) (Flag, error)
	UpdateFlagReview(ctx context.Context, flag Flag) error
}
