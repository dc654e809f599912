// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

// Package recommend produces personalized movie and series recommendations
// from a user's watch history and a catalog of embedded titles.
//
// # Pipeline
//
// Each run covers one user and one media kind and passes through these stages:
//
//   - Taste profile: engagement-weighted mean of recent watch embeddings (profile)
//   - Retrieval: nearest catalog titles to the profile vector (retrieval)
//   - Scoring: similarity, novelty and rating blended by weight (scoring)
//   - Preference boosts: franchise, genre and custom-interest multipliers (boost)
//   - Selection: greedy diversity-aware pick of the final list (reranking)
//
// The Engine sequences the stages, records each run with its full scored
// population and evidence, and publishes a completion event consumed by the
// explanation worker (explain).
//
// # Concurrency
//
// Runs for the same user and media kind never overlap; a second request
// fails fast with ErrRunInProgress. Batches fan out across users with a
// bounded worker count and honor job cancellation between users.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.Deps{
//	    Catalog:    db,
//	    Runs:       db,
//	    Embeddings: provider,
//	    Settings:   resolver,
//	    Profiles:   profile.NewBuilder(provider, db, logger),
//	    Retriever:  retrieval.NewRetriever(db, logger),
//	    Scorer:     scoring.NewScorer(),
//	    Booster:    boost.NewBooster(db, db, provider, rules, logger),
//	    Selector:   reranking.NewDiversitySelector(),
//	}, recommend.Options{Workers: 4}, logger)
//
//	res, err := engine.GenerateForUser(ctx, userID, recommend.MediaMovie, nil)
package recommend
