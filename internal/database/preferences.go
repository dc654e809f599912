// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/curator/internal/recommend"
)

// ReplaceFranchisePreferences swaps the user's franchise preferences for a kind.
func (db *DB) ReplaceFranchisePreferences(ctx context.Context, userID int, kind recommend.MediaKind, prefs []recommend.FranchisePreference) (err error) {
	defer db.observe("REPLACE", "franchise_preferences", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace franchise preferences: begin: %w", err)
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM franchise_preferences WHERE user_id = ? AND media_kind = ?`, userID, string(kind)); err != nil {
		return fmt.Errorf("clear franchise preferences: %w", err)
	}

	now := db.now()
	for _, p := range prefs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO franchise_preferences
				(user_id, media_kind, franchise, items_watched, items_in_catalog, engagement, preference, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, string(kind), p.Franchise, p.ItemsWatched, p.ItemsInCatalog, p.Engagement, p.Preference, now); err != nil {
			return fmt.Errorf("insert franchise preference %q: %w", p.Franchise, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace franchise preferences: commit: %w", err)
	}
	return nil
}

// GetFranchisePreferences returns stored franchise preferences ordered by franchise.
func (db *DB) GetFranchisePreferences(ctx context.Context, userID int, kind recommend.MediaKind) ([]recommend.FranchisePreference, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT franchise, items_watched, items_in_catalog, engagement, preference
		FROM franchise_preferences
		WHERE user_id = ? AND media_kind = ?
		ORDER BY franchise`, userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query franchise preferences: %w", err)
	}
	defer rows.Close()

	out := []recommend.FranchisePreference{}
	for rows.Next() {
		var p recommend.FranchisePreference
		if err := rows.Scan(&p.Franchise, &p.ItemsWatched, &p.ItemsInCatalog, &p.Engagement, &p.Preference); err != nil {
			return nil, fmt.Errorf("scan franchise preference: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReplaceGenreWeights swaps the user's genre weights for a kind.
func (db *DB) ReplaceGenreWeights(ctx context.Context, userID int, kind recommend.MediaKind, weights []recommend.GenreWeight) (err error) {
	defer db.observe("REPLACE", "genre_weights", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace genre weights: begin: %w", err)
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM genre_weights WHERE user_id = ? AND media_kind = ?`, userID, string(kind)); err != nil {
		return fmt.Errorf("clear genre weights: %w", err)
	}

	now := db.now()
	for _, w := range weights {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO genre_weights (user_id, media_kind, genre, weight, updated_at) VALUES (?, ?, ?, ?, ?)`,
			userID, string(kind), w.Genre, w.Weight, now); err != nil {
			return fmt.Errorf("insert genre weight %q: %w", w.Genre, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace genre weights: commit: %w", err)
	}
	return nil
}

// GetGenreWeights returns stored genre weights ordered by genre.
func (db *DB) GetGenreWeights(ctx context.Context, userID int, kind recommend.MediaKind) ([]recommend.GenreWeight, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT genre, weight FROM genre_weights WHERE user_id = ? AND media_kind = ? ORDER BY genre`,
		userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query genre weights: %w", err)
	}
	defer rows.Close()

	out := []recommend.GenreWeight{}
	for rows.Next() {
		var w recommend.GenreWeight
		if err := rows.Scan(&w.Genre, &w.Weight); err != nil {
			return nil, fmt.Errorf("scan genre weight: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Ensure DB implements the preference contract.
var _ recommend.PreferenceStore = (*DB)(nil)
