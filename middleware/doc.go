// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging and Metrics

	h := middleware.WithLogging(middleware.WithMetrics(m, "GET /polls/{slug}", handler))

WithLogging logs completion with method, path, status, and duration_ms;
5xx responses are logged at error level. WithMetrics observes the request
duration under the route pattern and is a no-op for a nil *metrics.Metrics.

# Moderator Authentication

	h := middleware.RequireModerator(cfg.ModeratorKeySalt, handler)

Requests need X-Moderator-ID and a matching X-Moderator-Key, otherwise
they get a 401. Handlers read the caller with ModeratorID(r.Context()).

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows the admin, moderator, user, and Idempotency-Key headers.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ParseJSONBody caps bodies at 1 MiB.

# Client IP Extraction

	ip := middleware.GetClientIP(r, cfg.TrustProxy)

X-Forwarded-For and X-Real-IP are honoured only behind a trusted proxy
(TRUST_PROXY). Anonymous voters are keyed by a salted hash of this address.

# User Identity

	userID := middleware.VerifiedUserID(r, cfg.UserKeySalt)

X-User-ID counts only when X-User-Key is its HMAC under USER_KEY_SALT.
Unverified IDs are treated as anonymous.
*/
package middleware
