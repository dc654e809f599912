// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package boost

import (
	"sort"

	"github.com/tomtom215/curator/internal/recommend"
)

const (
	// highEngagementThreshold is the franchise engagement (plays or episodes)
	// above which the full engagement bonus applies.
	highEngagementThreshold = 10

	highEngagementBonus = 0.3
	someEngagementBonus = 0.15
	completionFactor    = 0.4
	ratingFactor        = 0.6
	franchiseBoostScale = 0.5
)

type franchiseStats struct {
	items      map[int]struct{}
	engagement int
	ratingSum  float64
	ratings    int
}

// DetectFranchises aggregates watch history per franchise and computes a
// preference score for each. catalog sizes every franchise; a franchise the
// catalog under-counts is sized by what was watched. Results are sorted by name.
func DetectFranchises(history []recommend.WatchedItem, catalog []recommend.CatalogTitle, rules Rules) []recommend.FranchisePreference {
	stats := make(map[string]*franchiseStats)
	for i := range history {
		w := &history[i]
		name := rules.Resolve(w.Title, w.Collection)
		if name == "" {
			continue
		}
		s, ok := stats[name]
		if !ok {
			s = &franchiseStats{items: make(map[int]struct{})}
			stats[name] = s
		}
		s.items[w.ItemID] = struct{}{}
		s.engagement += max(1, w.UnitsCompleted)
		if w.UserRating != nil {
			s.ratingSum += recommend.Clamp(*w.UserRating/10, 0, 1)
			s.ratings++
		}
	}
	if len(stats) == 0 {
		return []recommend.FranchisePreference{}
	}

	sizes := make(map[string]int, len(stats))
	for i := range catalog {
		name := rules.Resolve(catalog[i].Title, catalog[i].Collection)
		if _, watched := stats[name]; watched {
			sizes[name]++
		}
	}

	prefs := make([]recommend.FranchisePreference, 0, len(stats))
	for name, s := range stats {
		watched := len(s.items)
		size := max(sizes[name], watched)

		var avgRating *float64
		if s.ratings > 0 {
			avg := s.ratingSum / float64(s.ratings)
			avgRating = &avg
		}

		prefs = append(prefs, recommend.FranchisePreference{
			Franchise:      name,
			ItemsWatched:   watched,
			ItemsInCatalog: size,
			Engagement:     s.engagement,
			Preference:     PreferenceScore(float64(watched)/float64(size), s.engagement, avgRating),
		})
	}

	sort.Slice(prefs, func(i, j int) bool { return prefs[i].Franchise < prefs[j].Franchise })
	return prefs
}

// PreferenceScore combines completion, engagement and normalized average
// rating (nil when unrated) into a franchise preference in [-1, 1].
func PreferenceScore(completionRate float64, engagement int, avgRating *float64) float64 {
	var bonus float64
	switch {
	case engagement >= highEngagementThreshold:
		bonus = highEngagementBonus
	case engagement >= 2:
		bonus = someEngagementBonus
	}

	var ratingAdj float64
	if avgRating != nil {
		ratingAdj = (*avgRating - 0.5) * ratingFactor
	}

	return recommend.Clamp(completionFactor*recommend.Clamp(completionRate, 0, 1)+bonus+ratingAdj, -1, 1)
}

// FranchiseBoost maps a preference in [-1, 1] onto a multiplier in [0.5, 1.5].
func FranchiseBoost(preference float64) float64 {
	return 1 + recommend.Clamp(preference, -1, 1)*franchiseBoostScale
}
