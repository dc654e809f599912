// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRun(t *testing.T) {
	tests := []struct {
		name      string
		kind      string
		status    string
		selected  int
		wantDelta float64
	}{
		{"completed movie run", "movie", RunCompleted, 12, 12},
		{"failed series run", "series", RunFailed, 0, 0},
		{"skipped run records no selections", "movie", RunSkipped, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runsBefore := testutil.ToFloat64(RecommendRunsTotal.WithLabelValues(tt.kind, tt.status))
			selBefore := testutil.ToFloat64(RecommendItemsSelected.WithLabelValues(tt.kind))

			RecordRun(tt.kind, tt.status, 250*time.Millisecond, 100, tt.selected)

			if got := testutil.ToFloat64(RecommendRunsTotal.WithLabelValues(tt.kind, tt.status)) - runsBefore; got != 1 {
				t.Errorf("runs delta = %v, want 1", got)
			}
			if got := testutil.ToFloat64(RecommendItemsSelected.WithLabelValues(tt.kind)) - selBefore; got != tt.wantDelta {
				t.Errorf("selected delta = %v, want %v", got, tt.wantDelta)
			}
		})
	}
}

func TestTrackActiveRun(t *testing.T) {
	before := testutil.ToFloat64(RecommendActiveRuns)

	TrackActiveRun(true)
	TrackActiveRun(true)
	if got := testutil.ToFloat64(RecommendActiveRuns) - before; got != 2 {
		t.Errorf("active runs delta = %v, want 2", got)
	}

	TrackActiveRun(false)
	TrackActiveRun(false)
	if got := testutil.ToFloat64(RecommendActiveRuns); got != before {
		t.Errorf("active runs = %v, want %v", got, before)
	}
}

func TestRecordBatch(t *testing.T) {
	okBefore := testutil.ToFloat64(BatchUsersTotal.WithLabelValues("success"))
	failBefore := testutil.ToFloat64(BatchUsersTotal.WithLabelValues("failed"))

	RecordBatch(3*time.Second, 4, 1, true)

	if got := testutil.ToFloat64(BatchUsersTotal.WithLabelValues("success")) - okBefore; got != 4 {
		t.Errorf("success delta = %v, want 4", got)
	}
	if got := testutil.ToFloat64(BatchUsersTotal.WithLabelValues("failed")) - failBefore; got != 1 {
		t.Errorf("failed delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(BatchLastSuccess); got != 0 {
		t.Errorf("cancelled batch set last success = %v", got)
	}

	RecordBatch(time.Second, 1, 0, false)
	if got := testutil.ToFloat64(BatchLastSuccess); got == 0 {
		t.Error("completed batch did not set last success timestamp")
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     float64
	}{
		{"closed", "open", 2},
		{"open", "half-open", 1},
		{"half-open", "closed", 0},
	}

	for _, tt := range tests {
		RecordCircuitBreakerTransition("test-embedder", tt.from, tt.to)
		if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-embedder")); got != tt.want {
			t.Errorf("%s -> %s state = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("test-embedder", "closed", "open")); got < 1 {
		t.Errorf("transition counter = %v, want >= 1", got)
	}
}

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("SELECT", "taste_profiles"))

	RecordDBQuery("SELECT", "taste_profiles", 5*time.Millisecond, nil)
	RecordDBQuery("SELECT", "taste_profiles", 5*time.Millisecond, errors.New("connection refused"))

	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("SELECT", "taste_profiles")) - before; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hitsBefore := testutil.ToFloat64(CacheHits.WithLabelValues("vector"))
	missBefore := testutil.ToFloat64(CacheMisses.WithLabelValues("vector"))

	RecordCacheLookup("vector", 3, 0)
	RecordCacheLookup("vector", 0, 2)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("vector")) - hitsBefore; got != 3 {
		t.Errorf("hits delta = %v, want 3", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("vector")) - missBefore; got != 2 {
		t.Errorf("misses delta = %v, want 2", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/jobs/{jobID}", "404"))

	RecordAPIRequest("GET", "/api/v1/jobs/{jobID}", 404, 2*time.Millisecond)

	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/jobs/{jobID}", "404")) - before; got != 1 {
		t.Errorf("requests delta = %v, want 1", got)
	}
}
