// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package boost

import "github.com/tomtom215/curator/internal/recommend"

const (
	// interestFloor is the cosine similarity below which an interest has no effect.
	interestFloor = 0.3

	// maxInterestLift is the boost added at perfect similarity.
	maxInterestLift = 0.5
)

// Interest is a user's free-text interest with its embedding.
type Interest struct {
	Text   string
	Vector []float32
}

// InterestBoost returns the boost for a candidate vector and the text of the
// best matching interest. No interests or no match above the floor yields 1.0.
func InterestBoost(vector []float32, interests []Interest) (boost float64, matched string) {
	best := 0.0
	for _, in := range interests {
		sim := recommend.CosineSimilarity(vector, in.Vector)
		if sim > best {
			best, matched = sim, in.Text
		}
	}
	if best <= interestFloor {
		return 1, ""
	}
	lift := recommend.Clamp((best-interestFloor)/(1-interestFloor), 0, 1)
	return 1 + maxInterestLift*lift, matched
}
