// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/logo-vote/auth"
	"github.com/danielhkuo/logo-vote/metrics"
	"github.com/danielhkuo/logo-vote/models"
)

// Request headers understood by the API
const (
	HeaderUserID         = "X-User-ID"
	HeaderUserKey        = "X-User-Key"
	HeaderAdminKey       = "X-Admin-Key"
	HeaderModeratorID    = "X-Moderator-ID"
	HeaderModeratorKey   = "X-Moderator-Key"
	HeaderIdempotencyKey = "Idempotency-Key"
)

const maxBodyBytes = 1 << 20

// statusRecorder remembers the status code written by the handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) code() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// WithLogging wraps a handler with request logging
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		slog.Debug("request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
		)

		next(rec, r)

		level := slog.LevelInfo
		if rec.code() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.code(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// WithMetrics records request duration and in-flight count under route.
// route is the mux pattern, not the raw path, to keep label cardinality low.
func WithMetrics(m *metrics.Metrics, route string, next http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		next(rec, r)

		m.RequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.code())).
			Observe(time.Since(start).Seconds())
	}
}

type moderatorKey struct{}

// RequireModerator rejects requests without a valid X-Moderator-ID and
// X-Moderator-Key pair. The moderator ID is stored in the request context.
func RequireModerator(salt string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moderatorID := strings.TrimSpace(r.Header.Get(HeaderModeratorID))
		key := r.Header.Get(HeaderModeratorKey)

		if moderatorID == "" || key == "" {
			ErrorResponse(w, http.StatusUnauthorized, "Moderator credentials required")
			return
		}
		if err := auth.ValidateModeratorKey(moderatorID, key, salt); err != nil {
			slog.Warn("moderator authentication failed", "moderator_id", moderatorID, "remote", r.RemoteAddr)
			ErrorResponse(w, http.StatusUnauthorized, "Invalid moderator credentials")
			return
		}

		ctx := context.WithValue(r.Context(), moderatorKey{}, moderatorID)
		next(w, r.WithContext(ctx))
	}
}

// ModeratorID returns the moderator authenticated by RequireModerator
func ModeratorID(ctx context.Context) string {
	id, _ := ctx.Value(moderatorKey{}).(string)
	return id
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RawJSONResponse writes an already encoded JSON body
func RawJSONResponse(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// ParseJSONBody parses the request body into the given struct.
// Bodies over 1 MiB are rejected.
func ParseJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return err
	}
	return nil
}

// CORS middleware allows cross-origin requests from the frontend
func CORS(next http.Handler) http.Handler {
	allowedHeaders := strings.Join([]string{
		"Content-Type",
		"Authorization",
		HeaderUserID,
		HeaderUserKey,
		HeaderAdminKey,
		HeaderModeratorID,
		HeaderModeratorKey,
		HeaderIdempotencyKey,
	}, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// VerifiedUserID returns X-User-ID when X-User-Key signs it, otherwise ""
func VerifiedUserID(r *http.Request, salt string) string {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		return ""
	}
	if err := auth.ValidateUserKey(userID, r.Header.Get(HeaderUserKey), salt); err != nil {
		slog.Debug("ignoring unverified user ID", "user_id", userID)
		return ""
	}
	return userID
}

// GetClientIP extracts the client IP address.
// X-Forwarded-For and X-Real-IP are only read when trustProxy is set,
// since any client can send them; otherwise RemoteAddr is used.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// Check X-Forwarded-For (load balancers), first IP in chain
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}

		// Check X-Real-IP (nginx)
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
