// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAction(t *testing.T) {
	m := New(nil)

	m.ObserveAction("close_vote", OutcomeSuccess)
	m.ObserveAction("close_vote", OutcomeSuccess)
	m.ObserveAction("close_vote", OutcomeRejected)

	if got := testutil.ToFloat64(m.ModerationActions.WithLabelValues("close_vote", OutcomeSuccess)); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ModerationActions.WithLabelValues("close_vote", OutcomeRejected)); got != 1 {
		t.Errorf("rejected count = %v, want 1", got)
	}
}

func TestAddRatings(t *testing.T) {
	m := New(nil)

	m.AddRatings(3)
	m.AddRatings(0)
	m.AddRatings(-1)

	if got := testutil.ToFloat64(m.RatingsSubmitted); got != 3 {
		t.Errorf("ratings = %v, want 3", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	// None of these may panic
	m.ObserveAction("hide_vote", OutcomeSuccess)
	m.ObserveFlag("spam", OutcomeSuccess)
	m.ObserveReview("approved", OutcomeSuccess)
	m.AddRatings(1)
	m.ObserveResults(0.1)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("nil handler status = %d, want 404", w.Code)
	}
}

func TestHandler(t *testing.T) {
	m := New(nil)
	m.ObserveFlag("spam", OutcomeSuccess)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `logovote_flags_created_total{flag_type="spam",outcome="success"} 1`) {
		t.Errorf("metrics output missing flag counter:\n%s", body)
	}
}
