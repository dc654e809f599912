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
	"time"

	"github.com/tomtom215/curator/internal/recommend"
)

// LoadProfile returns the current taste profile of a user and kind built
// with modelID, or nil when none is stored.
func (db *DB) LoadProfile(ctx context.Context, userID int, kind recommend.MediaKind, modelID string) (p *recommend.TasteProfile, err error) {
	defer db.observe("SELECT", "taste_profiles", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		raw     string
		profile = recommend.TasteProfile{UserID: userID, MediaKind: kind}
	)
	err = db.conn.QueryRowContext(ctx, `
		SELECT model_id, CAST(vector AS VARCHAR), item_count, updated_at
		FROM taste_profiles
		WHERE user_id = ? AND media_kind = ? AND model_id = ?`,
		userID, string(kind), modelID).Scan(&profile.ModelID, &raw, &profile.ItemCount, &profile.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile for user %d: %w", userID, err)
	}

	if profile.Vector, err = decodeVector(raw); err != nil {
		return nil, fmt.Errorf("load profile for user %d: %w", userID, err)
	}
	if len(profile.Vector) == 0 {
		return nil, nil
	}
	return &profile, nil
}

// SaveProfile overwrites the current and legacy copies of a profile in one transaction.
func (db *DB) SaveProfile(ctx context.Context, p *recommend.TasteProfile) (err error) {
	defer db.observe("UPSERT", "taste_profiles", time.Now(), &err)
	if p == nil || len(p.Vector) == 0 {
		return fmt.Errorf("save profile: empty vector")
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	vec, err := encodeVector(p.Vector)
	if err != nil {
		return err
	}
	updated := p.UpdatedAt.UTC()
	if p.UpdatedAt.IsZero() {
		updated = db.now()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save profile: begin: %w", err)
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO taste_profiles (user_id, media_kind, model_id, vector, item_count, updated_at)
		VALUES (?, ?, ?, CAST(? AS FLOAT[]), ?, ?)`,
		p.UserID, string(p.MediaKind), p.ModelID, vec, p.ItemCount, updated); err != nil {
		return fmt.Errorf("save profile for user %d: %w", p.UserID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO taste_profiles_legacy (user_id, media_kind, vector_json, updated_at)
		VALUES (?, ?, ?, ?)`,
		p.UserID, string(p.MediaKind), vec, updated); err != nil {
		return fmt.Errorf("save legacy profile for user %d: %w", p.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save profile: commit: %w", err)
	}
	return nil
}

// LoadLegacyProfileVector returns the legacy copy of a profile vector, nil when absent.
func (db *DB) LoadLegacyProfileVector(ctx context.Context, userID int, kind recommend.MediaKind) ([]float32, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var raw string
	err := db.conn.QueryRowContext(ctx,
		`SELECT vector_json FROM taste_profiles_legacy WHERE user_id = ? AND media_kind = ?`,
		userID, string(kind)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load legacy profile for user %d: %w", userID, err)
	}
	return decodeVector(raw)
}

// Ensure DB implements the profile contract.
var _ recommend.ProfileStore = (*DB)(nil)
