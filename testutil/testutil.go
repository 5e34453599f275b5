// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/logo-vote/auth"
	"github.com/danielhkuo/logo-vote/cliparse"
	"github.com/danielhkuo/logo-vote/db"
)

// SetupTestDB creates a fresh SQLite database with the full schema.
// Each test gets its own file, removed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := db.Open(context.Background(), db.DialectSQLite, path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, db.DialectSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      "file::memory:",
		DatabaseType:     string(db.DialectSQLite),
		AdminKeySalt:     "test-admin-salt",
		PollSlugSalt:     "test-slug-salt",
		ModeratorKeySalt: "test-moderator-salt",
		UserKeySalt:      "test-user-salt",
		LogLevel:         "error",
		BulkLimit:        50,
	}
}

// CreateTestPoll creates a poll in the database and returns its ID, admin key,
// and share slug. Polls that were never published have no slug.
func CreateTestPoll(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string) (pollID, adminKey, shareSlug string) {
	t.Helper()

	pollID, _ = auth.GenerateID(16)
	adminKey = auth.GenerateAdminKey(pollID, cfg.AdminKeySalt)

	var slug *string
	if status != "draft" {
		s := auth.GenerateShareSlug(pollID, cfg.PollSlugSalt)
		slug = &s
		shareSlug = s
	}

	now := time.Now().UTC()
	var closedAt *time.Time
	if status == "closed" {
		closedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO poll (id, title, description, creator_name, status, share_slug, closed_at, created_at, updated_at)
		VALUES ($1, 'Test Poll', 'A test poll', 'TestUser', $2, $3, $4, $5, $5)
	`, pollID, status, slug, closedAt, now)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	return pollID, adminKey, shareSlug
}

// AddTestOption adds an option to a poll and returns the option ID
func AddTestOption(t *testing.T, conn *sql.DB, pollID, label string) string {
	t.Helper()

	optionID, _ := auth.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO option (id, poll_id, label)
		VALUES ($1, $2, $3)
	`, optionID, pollID, label)
	if err != nil {
		t.Fatalf("Failed to create test option: %v", err)
	}

	return optionID
}

// AddTestRating stores one voter's rating of one option
func AddTestRating(t *testing.T, conn *sql.DB, pollID, optionID, voterKey string, value int) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO rating (poll_id, option_id, voter_key, value, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, pollID, optionID, voterKey, value, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test rating: %v", err)
	}
}

// PollStatus reads the current status of a poll
func PollStatus(t *testing.T, conn *sql.DB, pollID string) string {
	t.Helper()

	var status string
	if err := conn.QueryRow(`SELECT status FROM poll WHERE id = $1`, pollID).Scan(&status); err != nil {
		t.Fatalf("Failed to read poll status: %v", err)
	}
	return status
}

// CountRows counts the rows of a table, optionally filtered by poll
func CountRows(t *testing.T, conn *sql.DB, table, pollID string) int {
	t.Helper()

	query := `SELECT COUNT(*) FROM ` + table
	args := []any{}
	if pollID != "" {
		query += ` WHERE poll_id = $1`
		args = append(args, pollID)
	}

	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s rows: %v", table, err)
	}
	return n
}

// ModeratorHeaders returns the headers that authenticate a moderator
func ModeratorHeaders(cfg cliparse.Config, moderatorID string) map[string]string {
	return map[string]string{
		"X-Moderator-ID":  moderatorID,
		"X-Moderator-Key": auth.GenerateModeratorKey(moderatorID, cfg.ModeratorKeySalt),
	}
}

// UserHeaders returns the headers that identify a signed-in user
func UserHeaders(cfg cliparse.Config, userID string) map[string]string {
	return map[string]string{
		"X-User-ID":  userID,
		"X-User-Key": auth.GenerateUserKey(userID, cfg.UserKeySalt),
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
