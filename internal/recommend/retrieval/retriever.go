// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

// Package retrieval fetches nearest neighbour candidates for a taste profile.
//
// The catalog is asked for 2K neighbours with the parental rating ceiling
// applied in the query. The exclusion set is applied here and the result is
// truncated to K, so heavy exclusion lowers the count instead of failing.
package retrieval

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/curator/internal/recommend"
)

// oversampleFactor compensates for candidates lost to the exclusion set.
const oversampleFactor = 2

// Retriever implements recommend.CandidateRetriever.
type Retriever struct {
	catalog recommend.CatalogStore
	logger  zerolog.Logger
}

// NewRetriever creates a retriever backed by the catalog's vector index.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetriever(catalog recommend.CatalogStore, logger zerolog.Logger) *Retriever {
	return &Retriever{
		catalog: catalog,
		logger:  logger.With().Str("component", "retriever").Logger(),
	}
}

// Retrieve returns at most req.Limit candidates ordered by similarity.
//
//nolint:gocritic // req is passed by value as a request object
func (r *Retriever) Retrieve(ctx context.Context, req recommend.RetrievalRequest) ([]recommend.Candidate, error) {
	if req.Limit <= 0 || len(req.Vector) == 0 {
		return []recommend.Candidate{}, nil
	}

	raw, err := r.catalog.NearestNeighbors(ctx, recommend.NeighborQuery{
		MediaKind:      req.MediaKind,
		ModelID:        req.ModelID,
		Vector:         req.Vector,
		Limit:          req.Limit * oversampleFactor,
		MaxRatingLevel: req.MaxRatingLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("nearest neighbour query: %w", err)
	}

	out := make([]recommend.Candidate, 0, min(len(raw), req.Limit))
	for i := range raw {
		if _, excluded := req.Exclude[raw[i].ItemID]; excluded {
			continue
		}
		out = append(out, raw[i])
		if len(out) == req.Limit {
			break
		}
	}

	r.logger.Debug().
		Str("media_kind", string(req.MediaKind)).
		Int("requested", req.Limit).
		Int("fetched", len(raw)).
		Int("returned", len(out)).
		Msg("candidates retrieved")

	return out, nil
}

// Ensure Retriever implements the interface.
var _ recommend.CandidateRetriever = (*Retriever)(nil)
