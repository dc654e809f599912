// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

// Package profile builds taste profiles from weighted watch history.
package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/curator/internal/recommend"
)

// Builder implements recommend.ProfileBuilder.
type Builder struct {
	embeddings recommend.EmbeddingProvider
	store      recommend.ProfileStore
	logger     zerolog.Logger
	now        func() time.Time
}

// NewBuilder creates a profile builder.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBuilder(embeddings recommend.EmbeddingProvider, store recommend.ProfileStore, logger zerolog.Logger) *Builder {
	return &Builder{
		embeddings: embeddings,
		store:      store,
		logger:     logger.With().Str("component", "profile_builder").Logger(),
		now:        time.Now,
	}
}

// Build returns the user's taste profile for the active model.
//
// A stored profile younger than req.MaxAge is reused unless req.Force is set.
// Otherwise the profile is rebuilt as the engagement-weighted mean of the
// watched items' vectors, persisted, and returned with fresh = true. Watched
// items without a vector are skipped. When none has a vector the result is a
// nil profile and a nil error.
//
//nolint:gocritic // req is passed by value as a request object
func (b *Builder) Build(ctx context.Context, req recommend.ProfileRequest) (*recommend.TasteProfile, bool, error) {
	if !req.Force && req.MaxAge > 0 {
		stored, err := b.store.LoadProfile(ctx, req.UserID, req.MediaKind, req.ModelID)
		if err != nil {
			b.logger.Warn().Err(err).Int("user_id", req.UserID).Msg("failed to load stored profile, rebuilding")
		} else if stored != nil && b.now().Sub(stored.UpdatedAt) < req.MaxAge {
			return stored, false, nil
		}
	}

	if len(req.History) == 0 {
		return nil, false, nil
	}

	weights := make(map[int]float64, len(req.History))
	ids := make([]int, 0, len(req.History))
	for i := range req.History {
		w := &req.History[i]
		if _, seen := weights[w.ItemID]; !seen {
			ids = append(ids, w.ItemID)
		}
		weights[w.ItemID] += w.EngagementWeight()
	}

	vectors, err := b.embeddings.GetVectors(ctx, ids, req.ModelID)
	if err != nil {
		return nil, false, fmt.Errorf("load watched item vectors: %w", err)
	}

	vecs := make([][]float32, 0, len(vectors))
	ws := make([]float64, 0, len(vectors))
	for _, id := range ids {
		v, ok := vectors[id]
		if !ok || len(v) == 0 {
			continue
		}
		vecs = append(vecs, v)
		ws = append(ws, weights[id])
	}

	mean := recommend.WeightedMean(vecs, ws)
	if mean == nil {
		b.logger.Debug().
			Int("user_id", req.UserID).
			Int("watched", len(ids)).
			Msg("no watched items with embeddings")
		return nil, false, nil
	}

	p := &recommend.TasteProfile{
		UserID:    req.UserID,
		MediaKind: req.MediaKind,
		ModelID:   req.ModelID,
		Vector:    mean,
		ItemCount: len(vecs),
		UpdatedAt: b.now().UTC(),
	}
	if err := b.store.SaveProfile(ctx, p); err != nil {
		return nil, false, fmt.Errorf("save taste profile: %w", err)
	}

	b.logger.Debug().
		Int("user_id", req.UserID).
		Str("media_kind", string(req.MediaKind)).
		Int("items", len(vecs)).
		Int("skipped", len(ids)-len(vecs)).
		Msg("taste profile rebuilt")

	return p, true, nil
}

// Ensure Builder implements the interface.
var _ recommend.ProfileBuilder = (*Builder)(nil)
