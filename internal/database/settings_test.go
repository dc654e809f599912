// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/curator/internal/recommend"
)

func TestSettingsOverride_ResolvedThroughStore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	count := 5
	age := 2 * time.Hour
	if err := db.SaveSettingsOverride(ctx, 1, recommend.MediaMovie, &recommend.SettingsOverride{
		SelectedCount: &count,
		ProfileMaxAge: &age,
	}); err != nil {
		t.Fatalf("SaveSettingsOverride() error = %v", err)
	}

	resolver := recommend.NewSettingsResolver(nil, db)
	got, err := resolver.Resolve(ctx, 1, recommend.MediaMovie, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := recommend.DefaultSettings(recommend.MediaMovie)
	want.SelectedCount = 5
	want.ProfileMaxAge = 2 * time.Hour
	if got != want {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}

	// Other users and kinds are untouched.
	if o, _ := db.GetSettingsOverride(ctx, 1, recommend.MediaSeries); o != nil {
		t.Errorf("series override = %+v, want nil", o)
	}

	if err := db.SaveSettingsOverride(ctx, 1, recommend.MediaMovie, nil); err != nil {
		t.Fatal(err)
	}
	if o, _ := db.GetSettingsOverride(ctx, 1, recommend.MediaMovie); o != nil {
		t.Errorf("override after delete = %+v, want nil", o)
	}
}
