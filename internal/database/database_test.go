// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/curator/internal/config"
	"github.com/tomtom215/curator/internal/recommend"
)

// testDBSemaphore serializes DuckDB usage across tests; concurrent CGO
// connections from many tests can hang under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func ptr(v float64) *float64 { return &v }

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// seedCatalog creates user 1 (PG-13 ceiling) and 2 (disabled), five movies,
// one series and a two-dimensional active model.
func seedCatalog(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()

	users := []recommend.User{
		{ID: 1, Username: "alice", Enabled: true, MaxContentRating: "PG-13"},
		{ID: 2, Username: "bob", Enabled: false},
		{ID: 3, Username: "carol", Enabled: true},
	}
	for _, u := range users {
		if err := db.UpsertUser(ctx, u); err != nil {
			t.Fatalf("UpsertUser(%d) error = %v", u.ID, err)
		}
	}

	items := []CatalogItem{
		{ID: 10, Kind: recommend.MediaMovie, Title: "Alpha", Year: 2001, Genres: []string{"Drama"}, Source: "A24", ContentRating: "PG", CommunityRating: ptr(8)},
		{ID: 11, Kind: recommend.MediaMovie, Title: "Beta", Genres: []string{"Comedy", "Drama"}, ContentRating: "R"},
		{ID: 12, Kind: recommend.MediaMovie, Title: "Gamma", Genres: []string{"Horror"}, Collection: "Gamma Collection"},
		{ID: 13, Kind: recommend.MediaMovie, Title: "Delta", Genres: []string{"Drama"}, ContentRating: "PG-13"},
		{ID: 14, Kind: recommend.MediaMovie, Title: "Epsilon", Genres: nil, ContentRating: "G"},
		{ID: 20, Kind: recommend.MediaSeries, Title: "Show", Genres: []string{"Drama"}, Source: "HBO", TotalUnits: 10},
	}
	for _, it := range items {
		if err := db.UpsertItem(ctx, it); err != nil {
			t.Fatalf("UpsertItem(%d) error = %v", it.ID, err)
		}
	}

	if err := db.RegisterModel(ctx, "m1", 2, true); err != nil {
		t.Fatalf("RegisterModel() error = %v", err)
	}
	vectors := map[int][]float32{
		10: {1, 0},
		11: {0.9, 0.1},
		12: {0, 1},
		13: {0.7, 0.7},
		14: {-1, 0},
		20: {1, 0},
	}
	for id, v := range vectors {
		if err := db.UpsertEmbedding(ctx, id, "m1", v); err != nil {
			t.Fatalf("UpsertEmbedding(%d) error = %v", id, err)
		}
	}
}

func TestNew_AppliesMigrations(t *testing.T) {
	db := setupTestDB(t)

	version, err := db.GetSchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("GetSchemaVersion() error = %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}

	// Re-running is a no-op.
	if err := db.runVersionedMigrations(); err != nil {
		t.Fatalf("second runVersionedMigrations() error = %v", err)
	}
}

func TestActiveModelID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.ActiveModelID(ctx); !errors.Is(err, recommend.ErrNoEmbeddingModel) {
		t.Fatalf("ActiveModelID() error = %v, want ErrNoEmbeddingModel", err)
	}

	if err := db.RegisterModel(ctx, "m1", 2, true); err != nil {
		t.Fatal(err)
	}
	if err := db.RegisterModel(ctx, "m2", 3, true); err != nil {
		t.Fatal(err)
	}

	got, err := db.ActiveModelID(ctx)
	if err != nil {
		t.Fatalf("ActiveModelID() error = %v", err)
	}
	if got != "m2" {
		t.Errorf("ActiveModelID() = %q, want m2", got)
	}
}

func TestGetRecordCounts(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)

	counts, err := db.GetRecordCounts(context.Background())
	if err != nil {
		t.Fatalf("GetRecordCounts() error = %v", err)
	}
	if counts["users"] != 3 || counts["catalog_items"] != 6 || counts["item_embeddings"] != 6 {
		t.Errorf("counts = %v", counts)
	}
}
