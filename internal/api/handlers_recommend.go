// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/curator/internal/recommend"
)

// maxBodyBytes bounds settings override bodies.
const maxBodyBytes = 64 << 10

// parseUserID reads the {userID} path parameter.
func parseUserID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

// parseKind reads the kind query parameter. An empty value yields def.
func parseKind(r *http.Request, def recommend.MediaKind) (recommend.MediaKind, error) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		return def, nil
	}
	return recommend.ParseMediaKind(raw)
}

// decodeOverride reads an optional settings override body.
func decodeOverride(r *http.Request) (*recommend.SettingsOverride, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, errors.New("request body too large")
	}
	if len(body) == 0 {
		return nil, nil
	}
	var o recommend.SettingsOverride
	if err := json.Unmarshal(body, &o); err != nil {
		return nil, fmt.Errorf("decode settings override: %w", err)
	}
	return &o, nil
}

// GenerateRecommendations handles POST /api/v1/users/{userID}/recommendations.
// The optional JSON body overrides settings for this run only.
func (h *Handler) GenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user ID", err)
		return
	}
	kind, err := parseKind(r, recommend.MediaMovie)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	override, err := decodeOverride(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid settings override", err)
		return
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	result, err := h.engine.GenerateForUser(ctx, userID, kind, override)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, result)
}

// RegenerateRecommendations handles POST /api/v1/users/{userID}/recommendations/regenerate.
func (h *Handler) RegenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user ID", err)
		return
	}
	kind, err := parseKind(r, recommend.MediaMovie)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	result, err := h.engine.RegenerateForUser(ctx, userID, kind)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, result)
}

// GetRecommendations handles GET /api/v1/users/{userID}/recommendations.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user ID", err)
		return
	}
	kind, err := parseKind(r, recommend.MediaMovie)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	latest, err := h.engine.LatestRecommendations(r.Context(), userID, kind)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, latest)
}

// ClearUserRecommendations handles DELETE /api/v1/users/{userID}/recommendations.
// Without a kind every media kind is cleared.
func (h *Handler) ClearUserRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user ID", err)
		return
	}
	kind, err := parseKind(r, "")
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	if err := h.engine.ClearForUser(r.Context(), userID, kind); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearAllRecommendations handles DELETE /api/v1/recommendations.
func (h *Handler) ClearAllRecommendations(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ClearAll(r.Context()); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartBatch handles POST /api/v1/recommendations/batch. The batch runs in
// the background; the response carries the queued job.
func (h *Handler) StartBatch(w http.ResponseWriter, r *http.Request) {
	if h.batches == nil {
		respondError(w, r, http.StatusServiceUnavailable, "BATCH_DISABLED", "Batch generation is disabled", nil)
		return
	}

	job, err := h.batches.StartBatch(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/jobs/"+job.ID)
	respondSuccess(w, r, http.StatusAccepted, map[string]interface{}{
		"jobId": job.ID,
		"job":   job,
	})
}
