// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package recommend

import "math"

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched dimensions or zero vectors return 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// UnitSimilarity maps a cosine similarity from [-1, 1] into [0, 1].
func UnitSimilarity(cos float64) float64 {
	return Clamp((cos+1)/2, 0, 1)
}

// WeightedMean returns the weighted element-wise mean of vectors.
// Vectors whose dimension differs from the first are skipped.
// Returns nil when no vector carries positive weight.
func WeightedMean(vectors [][]float32, weights []float64) []float32 {
	if len(vectors) == 0 || len(vectors) != len(weights) {
		return nil
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	var total float64
	for i, v := range vectors {
		if len(v) != dim || weights[i] <= 0 {
			continue
		}
		for j, x := range v {
			sum[j] += float64(x) * weights[i]
		}
		total += weights[i]
	}
	if total == 0 || dim == 0 {
		return nil
	}

	out := make([]float32, dim)
	for j := range sum {
		out[j] = float32(sum[j] / total)
	}
	return out
}
