// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

/*
Package database provides the DuckDB backed stores of the recommendation pipeline.

A single DB value implements every storage contract the pipeline consumes:

  - recommend.CatalogStore: users, catalog items, watch history, dislikes,
    custom interests and nearest neighbour search
  - recommend.ProfileStore: current and legacy taste profile copies
  - recommend.PreferenceStore: franchise preferences and genre weights
  - recommend.RunStore: runs, candidate records, evidence and explanations
  - recommend.SettingsStore: per-user settings overrides
  - the vector source behind internal/embedding

# Vectors

Embeddings and taste profiles are stored as FLOAT[] lists. They are bound as
JSON list literals and cast in SQL, and read back by casting to VARCHAR and
decoding with goccy/go-json. Nearest neighbour search uses DuckDB's
list_cosine_similarity over the items of the requested kind and model.

# Schema

Tables are created on startup (see database_schema.go). Later changes are
applied by the versioned migrations in migrations.go.

# Testing

Tests open an in-memory database:

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB"})
*/
package database
