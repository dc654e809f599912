// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

// Package reranking selects the final recommendations from the ranked
// candidate population.
//
// # Diversity Selection
//
// Selection is greedy. At every step each remaining candidate receives an
// effective score
//
//	effective = (1 - w) * base + w * diversity * base
//
// where base is the candidate's final base score, w the diversity weight and
// diversity = 1 - overlap. Overlap measures how saturated the candidate's
// genres (and, for series, its network) already are among the selected items:
// an attribute seen c times contributes c/(c+1), and overlap is the mean over
// the candidate's attributes. The first duplicate costs the most and further
// duplicates cost progressively less.
//
// Effective scores are always recomputed from the untouched base score, so a
// penalty applied at one step never compounds into the next.
//
// With w = 0 the selection is exactly the top N by base score. Ties are broken
// by base score and then by population rank, which keeps output deterministic.
package reranking
