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

	"github.com/goccy/go-json"

	"github.com/tomtom215/curator/internal/recommend"
)

// GetSettingsOverride returns the user's stored override for a kind, nil when none.
func (db *DB) GetSettingsOverride(ctx context.Context, userID int, kind recommend.MediaKind) (*recommend.SettingsOverride, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var raw string
	err := db.conn.QueryRowContext(ctx,
		`SELECT settings FROM user_recommendation_settings WHERE user_id = ? AND media_kind = ?`,
		userID, string(kind)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings for user %d: %w", userID, err)
	}

	var o recommend.SettingsOverride
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return nil, fmt.Errorf("decode settings for user %d: %w", userID, err)
	}
	return &o, nil
}

// SaveSettingsOverride stores the user's override for a kind. A nil override deletes it.
func (db *DB) SaveSettingsOverride(ctx context.Context, userID int, kind recommend.MediaKind, o *recommend.SettingsOverride) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if o == nil {
		if _, err := db.conn.ExecContext(ctx,
			`DELETE FROM user_recommendation_settings WHERE user_id = ? AND media_kind = ?`,
			userID, string(kind)); err != nil {
			return fmt.Errorf("delete settings for user %d: %w", userID, err)
		}
		return nil
	}

	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode settings for user %d: %w", userID, err)
	}
	if _, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO user_recommendation_settings (user_id, media_kind, settings, updated_at)
		VALUES (?, ?, ?, ?)`,
		userID, string(kind), string(raw), db.now()); err != nil {
		return fmt.Errorf("save settings for user %d: %w", userID, err)
	}
	return nil
}

// Ensure DB implements the settings contract.
var _ recommend.SettingsStore = (*DB)(nil)
