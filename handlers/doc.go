// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the logo voting API.

# Handler Types

Each handler is a struct holding its database and config dependencies:

  - PollHandler: Poll lifecycle (create, options, publish, close, delete)
  - VotingHandler: Rating submission
  - ResultsHandler: Public poll view and live results
  - FlagHandler: Public complaints against a poll
  - ModerationHandler: Moderator actions, audit trail, flag queue, stats

Handlers are created via constructor functions:

	pollHandler := handlers.NewPollHandler(db, cfg)
	modHandler := handlers.NewModerationHandler(db, svc, store, idem, m)

A nil *metrics.Metrics is accepted everywhere and records nothing.

# Poll Lifecycle

	POST   /polls              → CreatePoll (returns admin_key)
	POST   /polls/{id}/options → AddOption (draft only)
	POST   /polls/{id}/publish → PublishPoll (draft → active, assigns share_slug)
	POST   /polls/{id}/close   → ClosePoll (active → closed)
	DELETE /polls/{id}         → DeletePoll (hard delete)
	GET    /polls/{id}/admin   → GetPollAdmin

Creator operations require the X-Admin-Key header.

# Voting

	POST /polls/{slug}/ratings → SubmitRatings

Ratings run from models.MinRating to models.MaxRating. A voter is the
X-User-ID header when X-User-Key verifies it, otherwise a salted hash of
the client IP.
Ratings are never updated; a second rating of the same option is a 409.

# Results

ComputePollResults loads ratings and hands them to the results package.
Nothing is cached or stored. The public endpoint serves active and closed
polls; hidden polls are 404 and disabled polls are 403.

# Moderation

Moderation routes sit behind middleware.RequireModerator. Rule failures
reported by the moderation service map onto status codes in statusForKind:

	not_found                                  → 404
	illegal_transition, duplicate, already_reviewed → 409
	invalid, capacity_exceeded                  → 400

Bulk requests may carry an Idempotency-Key; a repeat with the same body is
answered from the idempotency store with the Idempotent-Replayed header set.
*/
package handlers
