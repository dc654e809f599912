// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/curator/internal/jobs"
	"github.com/tomtom215/curator/internal/recommend"
)

type fakeEngine struct {
	mu sync.Mutex

	generateErr error
	lastUser    int
	lastKind    recommend.MediaKind
	lastOver    *recommend.SettingsOverride
	cleared     []string
	active      *recommend.ActiveRuns
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{active: recommend.NewActiveRuns()}
}

func (f *fakeEngine) record(userID int, kind recommend.MediaKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUser, f.lastKind = userID, kind
}

func (f *fakeEngine) GenerateForUser(_ context.Context, userID int, kind recommend.MediaKind, o *recommend.SettingsOverride) (*recommend.GenerateResult, error) {
	f.record(userID, kind)
	f.mu.Lock()
	f.lastOver = o
	f.mu.Unlock()
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return &recommend.GenerateResult{
		RunID:  "run-1",
		Status: recommend.RunCompleted,
		Recommendations: []recommend.ScoredCandidate{
			{Candidate: recommend.Candidate{ItemID: 10, Title: "Alpha"}, Selected: true, SelectedRank: 1},
		},
	}, nil
}

func (f *fakeEngine) RegenerateForUser(_ context.Context, userID int, kind recommend.MediaKind) (*recommend.RegenerateResult, error) {
	f.record(userID, kind)
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return &recommend.RegenerateResult{RunID: "run-2", Count: 3}, nil
}

func (f *fakeEngine) LatestRecommendations(_ context.Context, userID int, kind recommend.MediaKind) (*recommend.LatestResult, error) {
	f.record(userID, kind)
	return &recommend.LatestResult{
		Run:   &recommend.Run{ID: "run-1", UserID: userID, MediaKind: kind, Status: recommend.RunCompleted},
		Items: []recommend.CandidateRecord{{RunID: "run-1", Explanation: "Because you watched Alpha."}},
	}, nil
}

func (f *fakeEngine) ClearForUser(_ context.Context, userID int, kind recommend.MediaKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, fmt.Sprintf("%d/%s", userID, kind))
	return nil
}

func (f *fakeEngine) ClearAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, "all")
	return nil
}

func (f *fakeEngine) ActiveRuns() *recommend.ActiveRuns { return f.active }

type fakeJobs struct {
	job       *jobs.Job
	cancelErr error
	startErr  error
}

func (f *fakeJobs) Get(_ context.Context, id string) (*jobs.Job, error) {
	if f.job == nil || f.job.ID != id {
		return nil, fmt.Errorf("job %s: %w", id, jobs.ErrJobNotFound)
	}
	return f.job, nil
}

func (f *fakeJobs) List(context.Context, int) ([]*jobs.Job, error) {
	if f.job == nil {
		return []*jobs.Job{}, nil
	}
	return []*jobs.Job{f.job}, nil
}

func (f *fakeJobs) Cancel(ctx context.Context, id string) (*jobs.Job, error) {
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	job, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	job.CancelRequested = true
	return job, nil
}

func (f *fakeJobs) StartBatch(context.Context) (*jobs.Job, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.job, nil
}

func newTestServer(t *testing.T, engine *fakeEngine, js *fakeJobs, cfg *ChiMiddlewareConfig) *httptest.Server {
	t.Helper()
	h := NewHandler(engine, js, js, time.Minute, "test")
	srv := httptest.NewServer(NewRouter(h, NewChiMiddleware(cfg)).SetupChi())
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp, env
}

func TestGenerateRecommendations(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	srv := newTestServer(t, engine, &fakeJobs{}, nil)

	resp, env := doRequest(t, http.MethodPost, srv.URL+"/api/v1/users/7/recommendations?kind=series", `{"selected_count": 5}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !env.Success || env.Meta == nil || env.Meta.RequestID == "" {
		t.Errorf("envelope = %+v", env)
	}

	var result recommend.GenerateResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if result.RunID != "run-1" || len(result.Recommendations) != 1 {
		t.Errorf("result = %+v", result)
	}
	if engine.lastUser != 7 || engine.lastKind != recommend.MediaSeries {
		t.Errorf("engine called with user %d kind %s", engine.lastUser, engine.lastKind)
	}
	if engine.lastOver == nil || engine.lastOver.SelectedCount == nil || *engine.lastOver.SelectedCount != 5 {
		t.Errorf("override = %+v", engine.lastOver)
	}
}

func TestGenerateRecommendations_DefaultsToMovieWithoutBody(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	srv := newTestServer(t, engine, &fakeJobs{}, nil)

	resp, _ := doRequest(t, http.MethodPost, srv.URL+"/api/v1/users/3/recommendations", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if engine.lastKind != recommend.MediaMovie || engine.lastOver != nil {
		t.Errorf("kind = %s, override = %+v", engine.lastKind, engine.lastOver)
	}
}

func TestGenerateRecommendations_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		body       string
		engineErr  error
		wantStatus int
		wantCode   string
	}{
		{"non-numeric user", "/api/v1/users/abc/recommendations", "", nil, http.StatusBadRequest, "INVALID_USER_ID"},
		{"zero user", "/api/v1/users/0/recommendations", "", nil, http.StatusBadRequest, "INVALID_USER_ID"},
		{"bad kind", "/api/v1/users/1/recommendations?kind=music", "", nil, http.StatusBadRequest, "INVALID_MEDIA_KIND"},
		{"bad body", "/api/v1/users/1/recommendations", "{not json", nil, http.StatusBadRequest, "INVALID_BODY"},
		{"unknown user", "/api/v1/users/1/recommendations", "", fmt.Errorf("load user: %w", recommend.ErrUserNotFound), http.StatusNotFound, "USER_NOT_FOUND"},
		{"run in progress", "/api/v1/users/1/recommendations", "", recommend.ErrRunInProgress, http.StatusConflict, "RUN_IN_PROGRESS"},
		{"invalid settings", "/api/v1/users/1/recommendations", "", recommend.ErrInvalidSettings, http.StatusBadRequest, "INVALID_SETTINGS"},
		{"internal", "/api/v1/users/1/recommendations", "", errors.New("database is on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := newFakeEngine()
			engine.generateErr = tt.engineErr
			srv := newTestServer(t, engine, &fakeJobs{}, nil)

			resp, env := doRequest(t, http.MethodPost, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if env.Success || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Fatalf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(env.Error.Message, "fire") {
				t.Error("internal error text leaked to client")
			}
		})
	}
}

func TestRegenerateAndGetRecommendations(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	srv := newTestServer(t, engine, &fakeJobs{}, nil)

	resp, env := doRequest(t, http.MethodPost, srv.URL+"/api/v1/users/2/recommendations/regenerate?kind=movie", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("regenerate status = %d", resp.StatusCode)
	}
	var regen recommend.RegenerateResult
	if err := json.Unmarshal(env.Data, &regen); err != nil || regen.Count != 3 {
		t.Errorf("regenerate data = %s (%v)", env.Data, err)
	}

	resp, env = doRequest(t, http.MethodGet, srv.URL+"/api/v1/users/2/recommendations?kind=movie", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var latest recommend.LatestResult
	if err := json.Unmarshal(env.Data, &latest); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	if latest.Run == nil || latest.Run.UserID != 2 || len(latest.Items) != 1 {
		t.Errorf("latest = %+v", latest)
	}
}

func TestClearRecommendations(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	srv := newTestServer(t, engine, &fakeJobs{}, nil)

	for _, path := range []string{
		"/api/v1/users/4/recommendations",
		"/api/v1/users/4/recommendations?kind=series",
		"/api/v1/recommendations",
	} {
		resp, _ := doRequest(t, http.MethodDelete, srv.URL+path, "")
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("DELETE %s status = %d, want 204", path, resp.StatusCode)
		}
	}

	want := []string{"4/", "4/series", "all"}
	if fmt.Sprint(engine.cleared) != fmt.Sprint(want) {
		t.Errorf("cleared = %v, want %v", engine.cleared, want)
	}
}

func TestStartBatch(t *testing.T) {
	t.Parallel()

	job := &jobs.Job{ID: "job-9", Kind: "recommendations.batch", Status: jobs.StatusQueued}

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t, newFakeEngine(), &fakeJobs{job: job}, nil)

		resp, env := doRequest(t, http.MethodPost, srv.URL+"/api/v1/recommendations/batch", "")
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("status = %d, want 202", resp.StatusCode)
		}
		if got := resp.Header.Get("Location"); got != "/api/v1/jobs/job-9" {
			t.Errorf("Location = %q", got)
		}
		var data map[string]interface{}
		if err := json.Unmarshal(env.Data, &data); err != nil || data["jobId"] != "job-9" {
			t.Errorf("data = %s", env.Data)
		}
	})

	t.Run("pending", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t, newFakeEngine(), &fakeJobs{job: job, startErr: jobs.ErrJobPending}, nil)

		resp, env := doRequest(t, http.MethodPost, srv.URL+"/api/v1/recommendations/batch", "")
		if resp.StatusCode != http.StatusConflict || env.Error.Code != "BATCH_PENDING" {
			t.Errorf("status = %d, error = %+v", resp.StatusCode, env.Error)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(newFakeEngine(), &fakeJobs{}, nil, 0, "test")
		srv := httptest.NewServer(NewRouter(h, nil).SetupChi())
		defer srv.Close()

		resp, _ := doRequest(t, http.MethodPost, srv.URL+"/api/v1/recommendations/batch", "")
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", resp.StatusCode)
		}
	})
}

func TestJobsEndpoints(t *testing.T) {
	t.Parallel()

	newJob := func() *jobs.Job {
		return &jobs.Job{ID: "job-1", Status: jobs.StatusRunning, Done: 5, Total: 10}
	}

	tests := []struct {
		name       string
		method     string
		path       string
		cancelErr  error
		wantStatus int
	}{
		{"get", http.MethodGet, "/api/v1/jobs/job-1", nil, http.StatusOK},
		{"get missing", http.MethodGet, "/api/v1/jobs/nope", nil, http.StatusNotFound},
		{"list", http.MethodGet, "/api/v1/jobs?limit=5", nil, http.StatusOK},
		{"list bad limit", http.MethodGet, "/api/v1/jobs?limit=-1", nil, http.StatusBadRequest},
		{"cancel", http.MethodPost, "/api/v1/jobs/job-1/cancel", nil, http.StatusAccepted},
		{"cancel finished", http.MethodPost, "/api/v1/jobs/job-1/cancel", jobs.ErrJobFinished, http.StatusConflict},
		{"cancel missing", http.MethodPost, "/api/v1/jobs/nope/cancel", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(t, newFakeEngine(), &fakeJobs{job: newJob(), cancelErr: tt.cancelErr}, nil)

			resp, _ := doRequest(t, tt.method, srv.URL+tt.path, "")
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestGetJob_IncludesPercent(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newFakeEngine(), &fakeJobs{job: &jobs.Job{ID: "job-1", Done: 5, Total: 10}}, nil)

	_, env := doRequest(t, http.MethodGet, srv.URL+"/api/v1/jobs/job-1", "")
	var data struct {
		Percent float64 `json:"percent"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Percent != 50 {
		t.Errorf("percent = %v, want 50", data.Percent)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(newFakeEngine(), &fakeJobs{}, nil, 0, "1.0.0")
		h.AddHealthCheck("database", func(context.Context) error { return nil })
		srv := httptest.NewServer(NewRouter(h, nil).SetupChi())
		defer srv.Close()

		resp, env := doRequest(t, http.MethodGet, srv.URL+"/health", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var health HealthResponse
		if err := json.Unmarshal(env.Data, &health); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if health.Status != "healthy" || health.Checks["database"] != "ok" || health.Version != "1.0.0" {
			t.Errorf("health = %+v", health)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(newFakeEngine(), &fakeJobs{}, nil, 0, "1.0.0")
		h.AddHealthCheck("database", func(context.Context) error { return nil })
		h.AddHealthCheck("embedding", func(context.Context) error { return errors.New("circuit open") })
		srv := httptest.NewServer(NewRouter(h, nil).SetupChi())
		defer srv.Close()

		resp, env := doRequest(t, http.MethodGet, srv.URL+"/health", "")
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", resp.StatusCode)
		}
		var health HealthResponse
		if err := json.Unmarshal(env.Data, &health); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if health.Status != "degraded" || health.Checks["embedding"] != "circuit open" {
			t.Errorf("health = %+v", health)
		}
	})
}

func TestRouter_RequestIDAndHeaders(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newFakeEngine(), &fakeJobs{}, nil)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/users/1/recommendations", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "req-abc" {
		t.Errorf("X-Request-ID = %q, want req-abc", got)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Meta == nil || env.Meta.RequestID != "req-abc" {
		t.Errorf("meta = %+v", env.Meta)
	}
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newFakeEngine(), &fakeJobs{}, nil)

	resp, env := doRequest(t, http.MethodGet, srv.URL+"/api/v1/nothing-here", "")
	if resp.StatusCode != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("status = %d, error = %+v", resp.StatusCode, env.Error)
	}

	resp, env = doRequest(t, http.MethodPut, srv.URL+"/api/v1/recommendations", "")
	if resp.StatusCode != http.StatusMethodNotAllowed || env.Error == nil {
		t.Errorf("status = %d, error = %+v", resp.StatusCode, env.Error)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 1
	cfg.RateLimitWindow = time.Minute
	srv := newTestServer(t, newFakeEngine(), &fakeJobs{}, cfg)

	first, _ := doRequest(t, http.MethodGet, srv.URL+"/api/v1/users/1/recommendations", "")
	second, env := doRequest(t, http.MethodGet, srv.URL+"/api/v1/users/1/recommendations", "")

	if first.StatusCode != http.StatusOK {
		t.Errorf("first status = %d", first.StatusCode)
	}
	if second.StatusCode != http.StatusTooManyRequests || env.Error == nil || env.Error.Code != "RATE_LIMITED" {
		t.Errorf("second status = %d, error = %+v", second.StatusCode, env.Error)
	}

	// Health and metrics sit outside the limited group.
	if resp, _ := doRequest(t, http.MethodGet, srv.URL+"/health", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newFakeEngine(), &fakeJobs{}, nil)
	doRequest(t, http.MethodGet, srv.URL+"/api/v1/users/1/recommendations", "")

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://curator.example"}
	srv := newTestServer(t, newFakeEngine(), &fakeJobs{}, cfg)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/recommendations/batch", nil)
	req.Header.Set("Origin", "https://curator.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://curator.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
