// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package recommend

const (
	minCompletionBonus = 0.5
	maxCompletionBonus = 2.0
	favoriteBonus      = 1.5
)

// CompletionRatio returns how much of an item the user finished, in [0, 1].
// With an unknown total the ratio grows with units watched and saturates
// toward 1 (one unit is 0.5, three units 0.75).
func (w *WatchedItem) CompletionRatio() float64 {
	if w.UnitsCompleted <= 0 {
		return 0
	}
	if w.TotalUnits > 0 {
		return Clamp(float64(w.UnitsCompleted)/float64(w.TotalUnits), 0, 1)
	}
	return 1 - 1/(1+float64(w.UnitsCompleted))
}

// EngagementWeight returns completionBonus x favoriteBonus for a watched item.
// The completion bonus ranges from 0.5 to 2.0 and favorites get a 1.5x multiplier.
func (w *WatchedItem) EngagementWeight() float64 {
	weight := minCompletionBonus + (maxCompletionBonus-minCompletionBonus)*w.CompletionRatio()
	if w.IsFavorite {
		weight *= favoriteBonus
	}
	return weight
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
