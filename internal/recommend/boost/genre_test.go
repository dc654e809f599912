// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package boost

import (
	"testing"

	"github.com/tomtom215/curator/internal/recommend"
)

func weightsByGenre(ws []recommend.GenreWeight) map[string]float64 {
	out := make(map[string]float64, len(ws))
	for _, w := range ws {
		out[w.Genre] = w.Weight
	}
	return out
}

func TestDetectGenreWeights_SingleGenre(t *testing.T) {
	tests := []struct {
		name string
		item recommend.WatchedItem
		want float64
	}{
		{"average engagement", recommend.WatchedItem{ItemID: 1, Genres: []string{"Drama"}, UnitsCompleted: 1, TotalUnits: 1}, 1.1},
		{"favorite", recommend.WatchedItem{ItemID: 1, Genres: []string{"Drama"}, UnitsCompleted: 1, TotalUnits: 1, IsFavorite: true}, 1.3},
		{"top rated", recommend.WatchedItem{ItemID: 1, Genres: []string{"Drama"}, UnitsCompleted: 1, TotalUnits: 1, UserRating: ptr(10)}, 1.4},
		{"lowest rated", recommend.WatchedItem{ItemID: 1, Genres: []string{"Drama"}, UnitsCompleted: 1, TotalUnits: 1, UserRating: ptr(0)}, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := weightsByGenre(DetectGenreWeights([]recommend.WatchedItem{tt.item}))
			if !approx(got["drama"], tt.want) {
				t.Errorf("weight = %v, want %v", got["drama"], tt.want)
			}
		})
	}
}

func TestDetectGenreWeights_RelativeEngagement(t *testing.T) {
	var history []recommend.WatchedItem
	for i := 0; i < 9; i++ {
		history = append(history, recommend.WatchedItem{ItemID: i + 1, Genres: []string{"Drama"}, UnitsCompleted: 1, TotalUnits: 1})
	}
	history = append(history,
		recommend.WatchedItem{ItemID: 100, Genres: []string{"Comedy"}},
		recommend.WatchedItem{ItemID: 101, Genres: []string{"Horror"}},
	)

	ws := DetectGenreWeights(history)
	got := weightsByGenre(ws)

	if !approx(got["drama"], 1.4) {
		t.Errorf("dominant genre weight = %v, want 1.4 (ceiling)", got["drama"])
	}
	if got["comedy"] <= 0.8 || got["comedy"] >= 0.9 {
		t.Errorf("rare genre weight = %v, want just above 0.8", got["comedy"])
	}
	for _, w := range ws {
		if w.Weight < 0 || w.Weight > 2 {
			t.Errorf("genre %s weight %v outside [0,2]", w.Genre, w.Weight)
		}
	}
	if ws[0].Genre != "comedy" || ws[2].Genre != "horror" {
		t.Errorf("weights not sorted by genre: %+v", ws)
	}
}

func TestDetectGenreWeights_Empty(t *testing.T) {
	if got := DetectGenreWeights(nil); got == nil || len(got) != 0 {
		t.Errorf("DetectGenreWeights(nil) = %v, want empty slice", got)
	}
}

func TestGenreBoost(t *testing.T) {
	weights := map[string]float64{"drama": 1.4, "comedy": 0.8}

	tests := []struct {
		name    string
		genres  []string
		want    float64
		wantTop string
	}{
		{"mean of known genres", []string{"Drama", "Comedy"}, 1.1, "drama"},
		{"unknown genres ignored", []string{"Horror", "comedy"}, 0.8, "comedy"},
		{"no stored weight", []string{"Horror"}, 1, ""},
		{"no genres", nil, 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, top := GenreBoost(tt.genres, weights)
			if !approx(got, tt.want) || top != tt.wantTop {
				t.Errorf("GenreBoost(%v) = (%v, %q), want (%v, %q)", tt.genres, got, top, tt.want, tt.wantTop)
			}
		})
	}
}
