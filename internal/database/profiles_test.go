// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package database

import (
	"context"
	"testing"

	"github.com/tomtom215/curator/internal/recommend"
)

func TestProfiles(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	got, err := db.LoadProfile(ctx, 1, recommend.MediaMovie, "m1")
	if err != nil || got != nil {
		t.Fatalf("LoadProfile() on empty store = %v, %v; want nil, nil", got, err)
	}

	p := &recommend.TasteProfile{
		UserID:    1,
		MediaKind: recommend.MediaMovie,
		ModelID:   "m1",
		Vector:    []float32{0.25, -0.5, 1},
		ItemCount: 7,
		UpdatedAt: testEpoch,
	}
	if err := db.SaveProfile(ctx, p); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	got, err = db.LoadProfile(ctx, 1, recommend.MediaMovie, "m1")
	if err != nil || got == nil {
		t.Fatalf("LoadProfile() = %v, %v", got, err)
	}
	if got.ItemCount != 7 || len(got.Vector) != 3 || got.Vector[1] != -0.5 {
		t.Errorf("profile = %+v", got)
	}
	if !got.UpdatedAt.Equal(testEpoch) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, testEpoch)
	}

	// A profile built under another model is not reused.
	if other, _ := db.LoadProfile(ctx, 1, recommend.MediaMovie, "m2"); other != nil {
		t.Errorf("LoadProfile(m2) = %+v, want nil", other)
	}
	if other, _ := db.LoadProfile(ctx, 1, recommend.MediaSeries, "m1"); other != nil {
		t.Errorf("LoadProfile(series) = %+v, want nil", other)
	}

	legacy, err := db.LoadLegacyProfileVector(ctx, 1, recommend.MediaMovie)
	if err != nil {
		t.Fatal(err)
	}
	if len(legacy) != 3 || legacy[2] != 1 {
		t.Errorf("legacy vector = %v", legacy)
	}

	// Overwrite keeps a single row per user and kind.
	p.ModelID = "m2"
	p.Vector = []float32{1, 0}
	if err := db.SaveProfile(ctx, p); err != nil {
		t.Fatal(err)
	}
	if old, _ := db.LoadProfile(ctx, 1, recommend.MediaMovie, "m1"); old != nil {
		t.Errorf("stale profile still readable: %+v", old)
	}

	if err := db.SaveProfile(ctx, &recommend.TasteProfile{UserID: 1, MediaKind: recommend.MediaMovie}); err == nil {
		t.Error("SaveProfile(empty vector) error = nil")
	}
}
