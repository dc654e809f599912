// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/curator/internal/jobs"
	"github.com/tomtom215/curator/internal/recommend"
)

// Recommender is the engine surface used by the handlers.
type Recommender interface {
	GenerateForUser(ctx context.Context, userID int, kind recommend.MediaKind, override *recommend.SettingsOverride) (*recommend.GenerateResult, error)
	RegenerateForUser(ctx context.Context, userID int, kind recommend.MediaKind) (*recommend.RegenerateResult, error)
	LatestRecommendations(ctx context.Context, userID int, kind recommend.MediaKind) (*recommend.LatestResult, error)
	ClearForUser(ctx context.Context, userID int, kind recommend.MediaKind) error
	ClearAll(ctx context.Context) error
	ActiveRuns() *recommend.ActiveRuns
}

// JobService reads and cancels tracked jobs.
type JobService interface {
	Get(ctx context.Context, id string) (*jobs.Job, error)
	List(ctx context.Context, limit int) ([]*jobs.Job, error)
	Cancel(ctx context.Context, id string) (*jobs.Job, error)
}

// BatchStarter queues an all-users batch and returns its job.
type BatchStarter interface {
	StartBatch(ctx context.Context) (*jobs.Job, error)
}

// HealthCheck reports an error when a dependency is unhealthy.
type HealthCheck func(ctx context.Context) error

// Handler contains dependencies for API handlers.
type Handler struct {
	engine    Recommender
	jobs      JobService
	batches   BatchStarter
	startTime time.Time
	timeout   time.Duration
	version   string

	mu     sync.RWMutex
	checks map[string]HealthCheck
}

// NewHandler creates a handler. timeout bounds synchronous generation
// requests; zero means no limit beyond the server's own.
func NewHandler(engine Recommender, jobSvc JobService, batches BatchStarter, timeout time.Duration, version string) *Handler {
	return &Handler{
		engine:    engine,
		jobs:      jobSvc,
		batches:   batches,
		startTime: time.Now(),
		timeout:   timeout,
		version:   version,
		checks:    make(map[string]HealthCheck),
	}
}

// AddHealthCheck registers a named dependency check reported by /health.
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

func (h *Handler) healthChecks() ([]string, map[string]HealthCheck) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.checks))
	checks := make(map[string]HealthCheck, len(h.checks))
	for name, check := range h.checks {
		names = append(names, name)
		checks[name] = check
	}
	sort.Strings(names)
	return names, checks
}

// requestContext applies the generation timeout, if any.
func (h *Handler) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}
