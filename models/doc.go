// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: title, description, creator_name
  - AddOptionRequest: label
  - SubmitRatingsRequest: ratings (map[string]int)
  - CreateFlagRequest: flag_type, reason
  - ModerationActionRequest: action_type, reason, additional_data
  - BulkModerationRequest: vote_ids, action_type, reason
  - ReviewFlagRequest: status, notes

# Response Types

Types for JSON responses:

  - CreatePollResponse: poll_id, admin_key
  - AddOptionResponse: option_id
  - PublishPollResponse: share_slug, share_url
  - ClosePollResponse: closed_at
  - SubmitRatingsResponse: accepted, message
  - ResultsResponse: poll, results
  - ActionHistoryResponse: vote_id, actions
  - FlagListResponse: flags, limit, offset
  - ErrorResponse: error, message

Moderation operations answer with moderation.Result and
moderation.BulkResult directly.

# Domain Types

  - Poll: poll metadata and lifecycle state
  - Option: a rateable item within a poll

# Constants

Status values:

	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusClosed   = "closed"
	StatusDisabled = "disabled"
	StatusHidden   = "hidden"

Rating range:

	MinRating = -2
	MaxRating = 2
*/
package models
