// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

// Package boost detects a user's franchise and genre preferences and applies
// the three multiplicative preference boosts to scored candidates:
//
//	finalBase = baseScore x franchiseBoost x genreBoost x interestBoost
//
// # Franchise Boost
//
// A title's franchise is its catalog collection when present, otherwise the
// first matching rule of an ordered (pattern, name) table. Detection over the
// watch history computes, per franchise,
//
//	preference = clamp(-1, 1, 0.4*completionRate + engagementBonus + ratingAdjustment)
//
// and the boost is 1 + preference*0.5, so it always lies in [0.5, 1.5].
//
// # Genre Boost
//
// Genre weights in [0, 2] come from relative engagement (mapped into
// [0.8, 1.4]), a +/-0.3 rating adjustment and +0.2 for genres carried by a
// favorite. A candidate's genre boost is the mean weight over its genres
// that have one.
//
// # Interest Boost
//
// Only the top slice of candidates by base x franchise x genre is compared
// against the embeddings of the user's free-text interests. The best cosine
// similarity above 0.3 maps linearly onto a boost in [1, 1.5].
//
// Lookup failures for any boost are logged and the boost stays neutral.
package boost
