// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/curator/internal/recommend"
)

// CatalogItem is a catalog row as written by library sync.
type CatalogItem struct {
	ID              int
	Kind            recommend.MediaKind
	Title           string
	Year            int
	Genres          []string
	Source          string
	Collection      string
	CommunityRating *float64
	ContentRating   string

	// TotalUnits is the episode count of a series; movies use 1.
	TotalUnits int
}

// WatchEvent is the aggregated engagement of one user with one item.
type WatchEvent struct {
	ItemID         int
	UnitsCompleted int
	IsFavorite     bool
	UserRating     *float64
	LastPlayed     time.Time
}

// UpsertUser inserts or replaces a user row, keeping stored preferences.
//
//nolint:gocritic // u is passed by value as a plain record
func (db *DB) UpsertUser(ctx context.Context, u recommend.User) (err error) {
	defer db.observe("UPSERT", "users", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO users (id, username, enabled, max_content_rating)
		VALUES (?, ?, ?, NULLIF(?, ''))
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			enabled = excluded.enabled,
			max_content_rating = excluded.max_content_rating`,
		u.ID, u.Username, u.Enabled, u.MaxContentRating)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

// SetUserPreferences updates the watched-item and dislike handling of a user.
func (db *DB) SetUserPreferences(ctx context.Context, userID int, prefs recommend.UserPreferences) (err error) {
	defer db.observe("UPDATE", "users", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET include_watched = ?, dislike_behavior = ? WHERE id = ?`,
		prefs.IncludeWatched, string(prefs.DislikeBehavior), userID)
	if err != nil {
		return fmt.Errorf("update preferences for user %d: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // DuckDB always reports rows affected
		return fmt.Errorf("user %d: %w", userID, recommend.ErrUserNotFound)
	}
	return nil
}

// UpsertItem inserts or replaces a catalog item. The parental level is
// derived from the content rating label.
//
//nolint:gocritic // item is passed by value as a plain record
func (db *DB) UpsertItem(ctx context.Context, item CatalogItem) (err error) {
	defer db.observe("UPSERT", "catalog_items", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	genres, err := encodeStrings(item.Genres)
	if err != nil {
		return err
	}

	var level sql.NullInt64
	if l, ok := recommend.ContentRatingLevel(item.ContentRating); ok {
		level = sql.NullInt64{Int64: int64(l), Valid: true}
	}

	var rating sql.NullFloat64
	if item.CommunityRating != nil {
		rating = sql.NullFloat64{Float64: *item.CommunityRating, Valid: true}
	}

	totalUnits := item.TotalUnits
	if totalUnits <= 0 && item.Kind == recommend.MediaMovie {
		totalUnits = 1
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO catalog_items
			(id, media_kind, title, year, genres, source, collection, community_rating,
			 content_rating, content_rating_level, total_units, updated_at)
		VALUES (?, ?, ?, NULLIF(?, 0), ?, NULLIF(?, ''), NULLIF(?, ''), ?, NULLIF(?, ''), ?, NULLIF(?, 0), ?)`,
		item.ID, string(item.Kind), item.Title, item.Year, genres, item.Source, item.Collection, rating,
		item.ContentRating, level, totalUnits, db.now())
	if err != nil {
		return fmt.Errorf("upsert item %d: %w", item.ID, err)
	}
	return nil
}

// RecordWatch inserts or replaces a user's engagement with an item.
//
//nolint:gocritic // w is passed by value as a plain record
func (db *DB) RecordWatch(ctx context.Context, userID int, w WatchEvent) (err error) {
	defer db.observe("UPSERT", "watch_history", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var rating sql.NullFloat64
	if w.UserRating != nil {
		rating = sql.NullFloat64{Float64: *w.UserRating, Valid: true}
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO watch_history
			(user_id, item_id, units_completed, is_favorite, user_rating, last_played_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, w.ItemID, w.UnitsCompleted, w.IsFavorite, rating, w.LastPlayed.UTC())
	if err != nil {
		return fmt.Errorf("record watch of item %d by user %d: %w", w.ItemID, userID, err)
	}
	return nil
}

// AddDislikedItem marks an item as explicitly disliked by a user.
func (db *DB) AddDislikedItem(ctx context.Context, userID, itemID int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO disliked_items (user_id, item_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		userID, itemID)
	if err != nil {
		return fmt.Errorf("add disliked item %d for user %d: %w", itemID, userID, err)
	}
	return nil
}

// AddCustomInterest stores a free-text interest for a user.
func (db *DB) AddCustomInterest(ctx context.Context, userID int, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Errorf("custom interest for user %d: empty description", userID)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO custom_interests (user_id, description, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
		userID, description, db.now())
	if err != nil {
		return fmt.Errorf("add custom interest for user %d: %w", userID, err)
	}
	return nil
}

// ListEligibleUsers returns enabled users that have any watch history, ordered by id.
func (db *DB) ListEligibleUsers(ctx context.Context) (users []recommend.User, err error) {
	defer db.observe("SELECT", "users", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT u.id, u.username, u.enabled, COALESCE(u.max_content_rating, '')
		FROM users u
		WHERE u.enabled
		  AND EXISTS (SELECT 1 FROM watch_history w WHERE w.user_id = u.id)
		ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("query eligible users: %w", err)
	}
	defer rows.Close()

	users = []recommend.User{}
	for rows.Next() {
		var u recommend.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Enabled, &u.MaxContentRating); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// GetUser returns a user or an error wrapping recommend.ErrUserNotFound.
func (db *DB) GetUser(ctx context.Context, userID int) (*recommend.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var u recommend.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, enabled, COALESCE(max_content_rating, '') FROM users WHERE id = ?`,
		userID).Scan(&u.ID, &u.Username, &u.Enabled, &u.MaxContentRating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, recommend.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return &u, nil
}

// GetWatchHistory returns the user's most recently played items of a kind.
// A limit of zero or less returns the full history.
func (db *DB) GetWatchHistory(ctx context.Context, userID int, kind recommend.MediaKind, limit int) (history []recommend.WatchedItem, err error) {
	defer db.observe("SELECT", "watch_history", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT w.item_id, c.title, c.genres, COALESCE(c.collection, ''), w.last_played_at,
		       w.units_completed, COALESCE(c.total_units, 0), w.is_favorite, w.user_rating
		FROM watch_history w
		JOIN catalog_items c ON c.id = w.item_id
		WHERE w.user_id = ? AND c.media_kind = ?
		ORDER BY w.last_played_at DESC, w.item_id ASC`
	args := []interface{}{userID, string(kind)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	history = []recommend.WatchedItem{}
	for rows.Next() {
		var (
			w      recommend.WatchedItem
			genres string
			rating sql.NullFloat64
		)
		if err := rows.Scan(&w.ItemID, &w.Title, &genres, &w.Collection, &w.LastPlayed,
			&w.UnitsCompleted, &w.TotalUnits, &w.IsFavorite, &rating); err != nil {
			return nil, fmt.Errorf("scan watched item: %w", err)
		}
		w.Genres = decodeStrings(genres)
		if rating.Valid {
			r := rating.Float64
			w.UserRating = &r
		}
		history = append(history, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}
	return history, nil
}

// GetUserPreferences returns the stored preferences, or the defaults for an
// unknown user or an unrecognized dislike behavior.
func (db *DB) GetUserPreferences(ctx context.Context, userID int) (recommend.UserPreferences, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	prefs := recommend.DefaultUserPreferences()
	var behavior string
	err := db.conn.QueryRowContext(ctx,
		`SELECT include_watched, dislike_behavior FROM users WHERE id = ?`, userID).
		Scan(&prefs.IncludeWatched, &behavior)
	if errors.Is(err, sql.ErrNoRows) {
		return recommend.DefaultUserPreferences(), nil
	}
	if err != nil {
		return prefs, fmt.Errorf("get preferences for user %d: %w", userID, err)
	}

	switch b := recommend.DislikeBehavior(behavior); b {
	case recommend.DislikeExclude, recommend.DislikePenalize, recommend.DislikeIgnore:
		prefs.DislikeBehavior = b
	}
	return prefs, nil
}

// GetDislikedItems returns the ids of disliked items of a kind.
func (db *DB) GetDislikedItems(ctx context.Context, userID int, kind recommend.MediaKind) ([]int, error) {
	return db.queryIDs(ctx, `
		SELECT d.item_id
		FROM disliked_items d
		JOIN catalog_items c ON c.id = d.item_id
		WHERE d.user_id = ? AND c.media_kind = ?
		ORDER BY d.item_id`, userID, string(kind))
}

// GetCustomInterests returns the user's interest descriptions, oldest first.
func (db *DB) GetCustomInterests(ctx context.Context, userID int) ([]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT description FROM custom_interests WHERE user_id = ? ORDER BY created_at, description`, userID)
	if err != nil {
		return nil, fmt.Errorf("query custom interests: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan custom interest: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListCatalogTitles returns every item of a kind with its collection.
func (db *DB) ListCatalogTitles(ctx context.Context, kind recommend.MediaKind) (titles []recommend.CatalogTitle, err error) {
	defer db.observe("SELECT", "catalog_items", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, COALESCE(collection, '') FROM catalog_items WHERE media_kind = ? ORDER BY id`,
		string(kind))
	if err != nil {
		return nil, fmt.Errorf("query catalog titles: %w", err)
	}
	defer rows.Close()

	titles = []recommend.CatalogTitle{}
	for rows.Next() {
		var t recommend.CatalogTitle
		if err := rows.Scan(&t.ItemID, &t.Title, &t.Collection); err != nil {
			return nil, fmt.Errorf("scan catalog title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// NearestNeighbors returns up to q.Limit items of q.MediaKind ordered by
// cosine similarity to q.Vector under q.ModelID. Similarity is mapped into
// [0, 1]. With a rating ceiling, unrated items and items above it are skipped.
//
//nolint:gocritic // q is passed by value as a query object
func (db *DB) NearestNeighbors(ctx context.Context, q recommend.NeighborQuery) (candidates []recommend.Candidate, err error) {
	defer db.observe("SELECT", "item_embeddings", time.Now(), &err)
	if len(q.Vector) == 0 || q.Limit <= 0 {
		return []recommend.Candidate{}, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	vec, err := encodeVector(q.Vector)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT c.id, c.title, COALESCE(c.year, 0), c.genres, COALESCE(c.collection, ''),
		       COALESCE(c.source, ''), c.community_rating, COALESCE(c.content_rating, ''),
		       list_cosine_similarity(e.vector, CAST(? AS FLOAT[])) AS sim
		FROM item_embeddings e
		JOIN catalog_items c ON c.id = e.item_id
		WHERE e.model_id = ?
		  AND c.media_kind = ?
		  AND len(e.vector) = ?`
	args := []interface{}{vec, q.ModelID, string(q.MediaKind), len(q.Vector)}
	if q.MaxRatingLevel != nil {
		query += `
		  AND c.content_rating_level IS NOT NULL
		  AND c.content_rating_level <= ?`
		args = append(args, *q.MaxRatingLevel)
	}
	query += `
		ORDER BY sim DESC NULLS LAST, c.id ASC
		LIMIT ?`
	args = append(args, q.Limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbour query: %w", err)
	}
	defer rows.Close()

	candidates = []recommend.Candidate{}
	for rows.Next() {
		var (
			c      recommend.Candidate
			genres string
			rating sql.NullFloat64
			sim    sql.NullFloat64
		)
		if err := rows.Scan(&c.ItemID, &c.Title, &c.Year, &genres, &c.Collection,
			&c.Source, &rating, &c.ContentRating, &sim); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.Genres = decodeStrings(genres)
		if rating.Valid {
			r := rating.Float64
			c.CommunityRating = &r
		}
		c.Similarity = recommend.UnitSimilarity(sim.Float64)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return candidates, nil
}

func (db *DB) queryIDs(ctx context.Context, query string, args ...interface{}) ([]int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Ensure DB implements the catalog contract.
var _ recommend.CatalogStore = (*DB)(nil)
