// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

/*
database_schema.go - Database Schema Management

Tables:
  - users: library users with parental ceiling and dislike handling
  - catalog_items: movies and series with genres, source and ratings
  - embedding_models / item_embeddings: FLOAT[] vectors per item and model
  - watch_history: per user engagement snapshot, one row per item
  - disliked_items / custom_interests: explicit user signals
  - taste_profiles / taste_profiles_legacy: current and legacy profile copies
  - franchise_preferences / genre_weights: detected boost inputs
  - recommendation_runs / recommendation_candidates / recommendation_evidence
  - user_recommendation_settings: JSON settings overrides per user and kind

Genres are stored as JSON arrays in TEXT columns. Vectors are FLOAT[] so that
list_cosine_similarity can run inside the query.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// createIndexes creates secondary indexes for the hot query paths
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range indexCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}

var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		username TEXT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		max_content_rating TEXT,
		include_watched BOOLEAN NOT NULL DEFAULT FALSE,
		dislike_behavior TEXT NOT NULL DEFAULT 'exclude',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS catalog_items (
		id INTEGER PRIMARY KEY,
		media_kind TEXT NOT NULL,
		title TEXT NOT NULL,
		year INTEGER,
		genres TEXT NOT NULL DEFAULT '[]',
		source TEXT,
		collection TEXT,
		community_rating DOUBLE,
		content_rating TEXT,
		content_rating_level INTEGER,
		total_units INTEGER,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS embedding_models (
		id TEXT PRIMARY KEY,
		dimension INTEGER NOT NULL,
		active BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS item_embeddings (
		item_id INTEGER NOT NULL,
		model_id TEXT NOT NULL,
		vector FLOAT[] NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (item_id, model_id)
	)`,

	`CREATE TABLE IF NOT EXISTS watch_history (
		user_id INTEGER NOT NULL,
		item_id INTEGER NOT NULL,
		units_completed INTEGER NOT NULL DEFAULT 0,
		is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
		user_rating DOUBLE,
		last_played_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, item_id)
	)`,

	`CREATE TABLE IF NOT EXISTS disliked_items (
		user_id INTEGER NOT NULL,
		item_id INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, item_id)
	)`,

	`CREATE TABLE IF NOT EXISTS custom_interests (
		user_id INTEGER NOT NULL,
		description TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, description)
	)`,

	`CREATE TABLE IF NOT EXISTS taste_profiles (
		user_id INTEGER NOT NULL,
		media_kind TEXT NOT NULL,
		model_id TEXT NOT NULL,
		vector FLOAT[] NOT NULL,
		item_count INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, media_kind)
	)`,

	// Read by external tools that predate per-kind model tracking.
	`CREATE TABLE IF NOT EXISTS taste_profiles_legacy (
		user_id INTEGER NOT NULL,
		media_kind TEXT NOT NULL,
		vector_json TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, media_kind)
	)`,

	`CREATE TABLE IF NOT EXISTS franchise_preferences (
		user_id INTEGER NOT NULL,
		media_kind TEXT NOT NULL,
		franchise TEXT NOT NULL,
		items_watched INTEGER NOT NULL,
		items_in_catalog INTEGER NOT NULL,
		engagement INTEGER NOT NULL,
		preference DOUBLE NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, media_kind, franchise)
	)`,

	`CREATE TABLE IF NOT EXISTS genre_weights (
		user_id INTEGER NOT NULL,
		media_kind TEXT NOT NULL,
		genre TEXT NOT NULL,
		weight DOUBLE NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, media_kind, genre)
	)`,

	`CREATE TABLE IF NOT EXISTS recommendation_runs (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		media_kind TEXT NOT NULL,
		job_id TEXT,
		status TEXT NOT NULL,
		model_id TEXT,
		candidate_count INTEGER NOT NULL DEFAULT 0,
		selected_count INTEGER NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		error_message TEXT,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS recommendation_candidates (
		run_id TEXT NOT NULL,
		item_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		year INTEGER,
		genres TEXT NOT NULL DEFAULT '[]',
		source TEXT,
		collection TEXT,
		community_rating DOUBLE,
		content_rating TEXT,
		similarity DOUBLE NOT NULL,
		novelty_score DOUBLE NOT NULL,
		rating_score DOUBLE NOT NULL,
		base_score DOUBLE NOT NULL,
		franchise_boost DOUBLE NOT NULL,
		genre_boost DOUBLE NOT NULL,
		interest_boost DOUBLE NOT NULL,
		franchise TEXT,
		boost_genre TEXT,
		matched_interest TEXT,
		final_base DOUBLE NOT NULL,
		rank INTEGER NOT NULL,
		diversity_score DOUBLE NOT NULL,
		final_score DOUBLE NOT NULL,
		selected BOOLEAN NOT NULL,
		selected_rank INTEGER,
		PRIMARY KEY (run_id, item_id)
	)`,

	`CREATE TABLE IF NOT EXISTS recommendation_evidence (
		run_id TEXT NOT NULL,
		item_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		reference TEXT NOT NULL,
		weight DOUBLE NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS user_recommendation_settings (
		user_id INTEGER NOT NULL,
		media_kind TEXT NOT NULL,
		settings TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, media_kind)
	)`,
}

var indexCreationQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_catalog_items_kind ON catalog_items(media_kind)`,
	`CREATE INDEX IF NOT EXISTS idx_item_embeddings_model ON item_embeddings(model_id)`,
	`CREATE INDEX IF NOT EXISTS idx_watch_history_user ON watch_history(user_id, last_played_at)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_user_kind ON recommendation_runs(user_id, media_kind, started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_evidence_run ON recommendation_evidence(run_id)`,
}
