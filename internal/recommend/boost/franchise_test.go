// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package boost

import (
	"math"
	"testing"

	"github.com/tomtom215/curator/internal/recommend"
)

func ptr(v float64) *float64 { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPreferenceScore(t *testing.T) {
	tests := []struct {
		name       string
		completion float64
		engagement int
		rating     *float64
		want       float64
	}{
		{"complete and binged", 1, 12, nil, 0.7},
		{"half with some engagement and high rating", 0.5, 2, ptr(0.9), 0.2 + 0.15 + 0.24},
		{"single watch disliked", 0, 1, ptr(0), -0.3},
		{"saturates at one", 1, 50, ptr(1), 1},
		{"completion above one is clamped", 3, 0, nil, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreferenceScore(tt.completion, tt.engagement, tt.rating); !approx(got, tt.want) {
				t.Errorf("PreferenceScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFranchiseBoost_Range(t *testing.T) {
	tests := []struct {
		pref float64
		want float64
	}{
		{-1, 0.5},
		{0, 1},
		{1, 1.5},
		{0.7, 1.35},
		{-5, 0.5},
		{5, 1.5},
	}

	for _, tt := range tests {
		if got := FranchiseBoost(tt.pref); !approx(got, tt.want) {
			t.Errorf("FranchiseBoost(%v) = %v, want %v", tt.pref, got, tt.want)
		}
	}
}

func TestDetectFranchises(t *testing.T) {
	history := []recommend.WatchedItem{
		{ItemID: 1, Title: "Star Wars: A New Hope", UnitsCompleted: 1, UserRating: ptr(9)},
		{ItemID: 2, Title: "The Empire Strikes Back", Collection: "Star Wars Collection", UnitsCompleted: 2, UserRating: ptr(8)},
		{ItemID: 3, Title: "Random Film", UnitsCompleted: 1},
		{ItemID: 4, Title: "Star Trek: Discovery", UnitsCompleted: 12, TotalUnits: 40},
	}
	catalog := []recommend.CatalogTitle{
		{ItemID: 1, Title: "Star Wars: A New Hope"},
		{ItemID: 2, Title: "The Empire Strikes Back", Collection: "Star Wars Collection"},
		{ItemID: 5, Title: "Return of the Jedi", Collection: "Star Wars Collection"},
		{ItemID: 6, Title: "Star Wars: The Last Jedi"},
		{ItemID: 4, Title: "Star Trek: Discovery"},
		{ItemID: 7, Title: "Star Trek: Picard"},
		{ItemID: 8, Title: "Random Film"},
	}

	got := DetectFranchises(history, catalog, DefaultRules())
	if len(got) != 2 {
		t.Fatalf("DetectFranchises() len = %d, want 2: %+v", len(got), got)
	}

	trek, wars := got[0], got[1]
	if trek.Franchise != "Star Trek" || wars.Franchise != "Star Wars" {
		t.Fatalf("order = [%s %s], want [Star Trek, Star Wars]", trek.Franchise, wars.Franchise)
	}

	if wars.ItemsWatched != 2 || wars.ItemsInCatalog != 4 || wars.Engagement != 3 {
		t.Errorf("Star Wars stats = %+v", wars)
	}
	// 0.4*0.5 + 0.15 + (0.85-0.5)*0.6
	if !approx(wars.Preference, 0.56) {
		t.Errorf("Star Wars preference = %v, want 0.56", wars.Preference)
	}

	// 0.4*0.5 + 0.3
	if !approx(trek.Preference, 0.5) {
		t.Errorf("Star Trek preference = %v, want 0.5", trek.Preference)
	}
}

func TestDetectFranchises_CatalogUndercount(t *testing.T) {
	history := []recommend.WatchedItem{
		{ItemID: 1, Title: "John Wick", UnitsCompleted: 1},
		{ItemID: 2, Title: "John Wick: Chapter 2", UnitsCompleted: 1},
	}

	got := DetectFranchises(history, nil, DefaultRules())
	if len(got) != 1 {
		t.Fatalf("DetectFranchises() len = %d, want 1", len(got))
	}
	if got[0].ItemsInCatalog != 2 {
		t.Errorf("ItemsInCatalog = %d, want 2", got[0].ItemsInCatalog)
	}
	// completion 1.0, engagement 2
	if !approx(got[0].Preference, 0.55) {
		t.Errorf("Preference = %v, want 0.55", got[0].Preference)
	}
}

func TestDetectFranchises_NoFranchises(t *testing.T) {
	got := DetectFranchises([]recommend.WatchedItem{{ItemID: 1, Title: "Paddington"}}, nil, DefaultRules())
	if got == nil || len(got) != 0 {
		t.Errorf("DetectFranchises() = %v, want empty slice", got)
	}
}
