// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the logo voting API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, idem, m)

Every route except /health, /metrics, and / is wrapped with request
logging and Prometheus timing, labelled by its mux pattern.

# Endpoints

Operational:

	GET /health
	GET /metrics
	GET /

Poll management (creator, requires X-Admin-Key):

	POST   /polls              - Create poll
	GET    /polls/{id}/admin   - Get poll details
	POST   /polls/{id}/options - Add option
	POST   /polls/{id}/publish - Open for voting
	POST   /polls/{id}/close   - Stop voting
	DELETE /polls/{id}         - Delete poll and everything under it

Public (share slug):

	GET  /polls/{slug}         - Poll info and options
	GET  /polls/{slug}/results - Live results
	POST /polls/{slug}/ratings - Rate options
	POST /polls/{slug}/flags   - Report the poll

Moderation (requires X-Moderator-ID and X-Moderator-Key):

	POST /moderation/polls/bulk          - Apply one action to many polls
	POST /moderation/polls/{id}/actions  - Apply an action
	GET  /moderation/polls/{id}/actions  - Audit trail, newest first
	GET  /moderation/polls/{id}/results  - Results in any status
	GET  /moderation/flags               - Flag queue
	POST /moderation/flags/{id}/review   - Settle a flag
	GET  /moderation/stats               - Dashboard counts
*/
package router
