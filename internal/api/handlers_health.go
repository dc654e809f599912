// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds all dependency checks of one /health request.
const healthCheckTimeout = 3 * time.Second

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Uptime     float64           `json:"uptime_seconds"`
	ActiveRuns int               `json:"active_runs"`
	Checks     map[string]string `json:"checks"`
}

// Health handles GET /health. Any failing check yields 503 with status "degraded".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
		Checks:  make(map[string]string),
	}
	if h.engine != nil {
		resp.ActiveRuns = h.engine.ActiveRuns().Len()
	}

	names, checks := h.healthChecks()
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, &APIResponse{
		Success: status == http.StatusOK,
		Data:    resp,
		Meta:    newMeta(r),
	})
}
