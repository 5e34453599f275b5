// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package moderation implements the poll moderation state machine, the
audit trail, and user flags.

# Statuses

A poll is in exactly one of draft, active, closed, disabled, or hidden.
Moderators move polls between them with five actions:

	close_vote    active              -> closed
	disable_vote  any but disabled/hidden -> disabled
	hide_vote     any but hidden      -> hidden
	restore_vote  disabled/hidden     -> active, or draft (see below)
	delete_vote   any                 -> hidden (soft delete)

NextStatus is the pure transition function. Restoring reopens the poll as
active, except that it falls back to draft when the status before the last
disable or hide is unknown or was itself disabled or hidden.

# Service

Service applies actions through a Store. Each successful action writes
exactly one audit row in the same transaction as the status change;
rejected actions write nothing. Operations report rule violations in the
returned Result (Success false, Kind set) and reserve the error return
for storage failures.

BulkApply processes up to BulkLimit polls (default 50) one at a time.
A failing poll does not stop the others.

# Flags

CreateFlag files a pending flag. An identified flagger may hold only one
pending flag per poll and flag type; anonymous flags are never treated
as duplicates. ReviewFlag moves a pending flag to approved, rejected, or
resolved, and a flag can be reviewed only once.
*/
package moderation
