// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics exposes Prometheus collectors for the server.

Collectors:

  - logovote_moderation_actions_total{action,outcome}
  - logovote_flags_created_total{flag_type,outcome}
  - logovote_flag_reviews_total{status,outcome}
  - logovote_ratings_submitted_total
  - logovote_results_compute_duration_seconds
  - logovote_http_request_duration_seconds{route,method,status}
  - logovote_http_requests_in_flight

Go runtime, process, and database/sql pool collectors are registered too.
Every *Metrics method tolerates a nil receiver, so handlers can run
without metrics in tests.
*/
package metrics
