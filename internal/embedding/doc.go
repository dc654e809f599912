// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

/*
Package embedding supplies vectors to the recommendation pipeline.

Item vectors are precomputed and stored in DuckDB; Provider reads them
through a VectorSource and keeps recently used ones in an LRU cache keyed by
model and item. Free-text embeddings (custom interests) come from an
Ollama compatible HTTP service through Client, which is guarded by a circuit
breaker and a token bucket rate limiter.

	client := embedding.NewClient(&cfg.Embedding)
	provider := embedding.NewProvider(db, client, embedding.ProviderOptions{VectorCacheSize: 50000})

A Provider built without a Client returns no text embeddings, which turns
custom interest boosts off without failing runs.
*/
package embedding
