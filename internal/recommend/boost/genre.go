// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package boost

import (
	"sort"
	"strings"

	"github.com/tomtom215/curator/internal/recommend"
)

const (
	genreWeightFloor   = 0.8
	genreWeightCeiling = 1.4
	genreRelativeSlope = 0.3
	genreRatingFactor  = 0.6
	genreFavoriteBonus = 0.2
	maxGenreWeight     = 2.0
)

type genreStats struct {
	engagement float64
	ratingSum  float64
	ratings    int
	favorite   bool
}

// DetectGenreWeights derives a weight in [0, 2] for every watched genre.
// Genres are keyed lower-case. Results are sorted by genre.
func DetectGenreWeights(history []recommend.WatchedItem) []recommend.GenreWeight {
	stats := make(map[string]*genreStats)
	for i := range history {
		w := &history[i]
		weight := w.EngagementWeight()
		for _, g := range uniqueGenres(w.Genres) {
			s, ok := stats[g]
			if !ok {
				s = &genreStats{}
				stats[g] = s
			}
			s.engagement += weight
			if w.UserRating != nil {
				s.ratingSum += recommend.Clamp(*w.UserRating/10, 0, 1)
				s.ratings++
			}
			if w.IsFavorite {
				s.favorite = true
			}
		}
	}
	if len(stats) == 0 {
		return []recommend.GenreWeight{}
	}

	var total float64
	for _, s := range stats {
		total += s.engagement
	}
	mean := total / float64(len(stats))

	out := make([]recommend.GenreWeight, 0, len(stats))
	for g, s := range stats {
		relative := 1.0
		if mean > 0 {
			relative = s.engagement / mean
		}
		w := recommend.Clamp(genreWeightFloor+genreRelativeSlope*relative, genreWeightFloor, genreWeightCeiling)
		if s.ratings > 0 {
			w += (s.ratingSum/float64(s.ratings) - 0.5) * genreRatingFactor
		}
		if s.favorite {
			w += genreFavoriteBonus
		}
		out = append(out, recommend.GenreWeight{Genre: g, Weight: recommend.Clamp(w, 0, maxGenreWeight)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Genre < out[j].Genre })
	return out
}

// GenreBoost returns the mean stored weight over the candidate's genres and
// the genre with the highest weight. Genres without a weight are ignored; a
// candidate with none gets the neutral 1.0.
func GenreBoost(genres []string, weights map[string]float64) (boost float64, top string) {
	var sum, best float64
	n := 0
	for _, g := range uniqueGenres(genres) {
		w, ok := weights[g]
		if !ok {
			continue
		}
		sum += w
		n++
		if w > best || top == "" {
			best, top = w, g
		}
	}
	if n == 0 {
		return 1, ""
	}
	return recommend.Clamp(sum/float64(n), 0, maxGenreWeight), top
}

func uniqueGenres(genres []string) []string {
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
