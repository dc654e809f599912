// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

// Package scoring computes the per-candidate sub-scores and weighted base score.
//
// Every sub-score lies in [0, 1] regardless of missing input:
//
//   - similarity: the retriever's cosine-derived similarity, clamped
//   - novelty: 1 - overlap with the user's genre frequency distribution
//   - rating: community rating on the 0-10 scale divided by 10
//
// The base score is the weighted sum of the three. Weights need not sum to 1.
// Scoring is a pure function of its inputs.
package scoring

import (
	"math"
	"strings"

	"github.com/tomtom215/curator/internal/recommend"
)

const (
	// neutralScore is used when the input needed for a sub-score is missing.
	neutralScore = 0.5

	// ratingScale is the upper bound of community ratings.
	ratingScale = 10.0
)

// Scorer implements recommend.Scorer.
type Scorer struct{}

// NewScorer creates a scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns one ScoredCandidate per candidate, in input order. Boost
// factors are initialized to the neutral 1.0 and FinalBase to BaseScore.
//
//nolint:gocritic // settings is a small value type read once
func (s *Scorer) Score(candidates []recommend.Candidate, history []recommend.WatchedItem, settings recommend.Settings) []recommend.ScoredCandidate {
	dist := NewGenreDistribution(history)

	out := make([]recommend.ScoredCandidate, len(candidates))
	for i := range candidates {
		c := candidates[i]
		sim := recommend.Clamp(c.Similarity, 0, 1)
		nov := dist.Novelty(c.Genres)
		rat := RatingScore(c.CommunityRating)

		base := settings.SimilarityWeight*sim +
			settings.NoveltyWeight*nov +
			settings.RatingWeight*rat

		c.Similarity = sim
		out[i] = recommend.ScoredCandidate{
			Candidate:      c,
			NoveltyScore:   nov,
			RatingScore:    rat,
			BaseScore:      base,
			FranchiseBoost: 1,
			GenreBoost:     1,
			InterestBoost:  1,
			FinalBase:      base,
		}
	}
	return out
}

// RatingScore normalizes a 0-10 community rating. Missing or out of range
// ratings return the neutral midpoint.
func RatingScore(rating *float64) float64 {
	if rating == nil || *rating < 0 || *rating > ratingScale || math.IsNaN(*rating) {
		return neutralScore
	}
	return *rating / ratingScale
}

// GenreDistribution is a user's watched genre frequency, scaled so the most
// watched genre has share 1.
type GenreDistribution struct {
	share map[string]float64
}

// NewGenreDistribution counts genres across the watch history.
func NewGenreDistribution(history []recommend.WatchedItem) *GenreDistribution {
	counts := make(map[string]int)
	maxCount := 0
	for i := range history {
		for _, g := range normalizeGenres(history[i].Genres) {
			counts[g]++
			if counts[g] > maxCount {
				maxCount = counts[g]
			}
		}
	}

	share := make(map[string]float64, len(counts))
	for g, n := range counts {
		share[g] = float64(n) / float64(maxCount)
	}
	return &GenreDistribution{share: share}
}

// Share returns the scaled frequency of a genre in [0, 1].
func (d *GenreDistribution) Share(genre string) float64 {
	return d.share[strings.ToLower(strings.TrimSpace(genre))]
}

// Novelty returns 1 minus the mean share of the candidate's genres.
// Candidates with no genres return the neutral 0.5.
func (d *GenreDistribution) Novelty(genres []string) float64 {
	norm := normalizeGenres(genres)
	if len(norm) == 0 {
		return neutralScore
	}
	var sum float64
	for _, g := range norm {
		sum += d.share[g]
	}
	return recommend.Clamp(1-sum/float64(len(norm)), 0, 1)
}

// normalizeGenres lower-cases, trims and de-duplicates genre names.
func normalizeGenres(genres []string) []string {
	seen := make(map[string]struct{}, len(genres))
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

// Ensure Scorer implements the interface.
var _ recommend.Scorer = (*Scorer)(nil)
