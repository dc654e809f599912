// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package scoring

import (
	"math"
	"testing"

	"github.com/tomtom215/curator/internal/recommend"
)

func ptr(v float64) *float64 { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRatingScore(t *testing.T) {
	tests := []struct {
		name   string
		rating *float64
		want   float64
	}{
		{"missing", nil, 0.5},
		{"zero", ptr(0), 0},
		{"mid", ptr(7.5), 0.75},
		{"max", ptr(10), 1},
		{"negative", ptr(-1), 0.5},
		{"above scale", ptr(87), 0.5},
		{"NaN", ptr(math.NaN()), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RatingScore(tt.rating); !approx(got, tt.want) {
				t.Errorf("RatingScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenreDistribution_Novelty(t *testing.T) {
	history := []recommend.WatchedItem{
		{ItemID: 1, Genres: []string{"Drama", "Crime"}},
		{ItemID: 2, Genres: []string{"Drama"}},
		{ItemID: 3, Genres: []string{"drama", "Thriller"}},
		{ItemID: 4, Genres: []string{"Drama", "Crime"}},
	}
	dist := NewGenreDistribution(history)

	tests := []struct {
		name   string
		genres []string
		want   float64
	}{
		{"dominant genre", []string{"Drama"}, 0},
		{"never watched", []string{"Animation"}, 1},
		{"half share", []string{"Crime"}, 0.5},
		{"mixed", []string{"Drama", "Animation"}, 0.5},
		{"no genres", nil, 0.5},
		{"blank genres", []string{" ", ""}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dist.Novelty(tt.genres); !approx(got, tt.want) {
				t.Errorf("Novelty(%v) = %v, want %v", tt.genres, got, tt.want)
			}
		})
	}
}

func TestGenreDistribution_EmptyHistory(t *testing.T) {
	dist := NewGenreDistribution(nil)
	if got := dist.Novelty([]string{"Drama"}); got != 1 {
		t.Errorf("Novelty with empty history = %v, want 1", got)
	}
}

func TestScorer_Score(t *testing.T) {
	settings := recommend.Settings{SimilarityWeight: 0.6, NoveltyWeight: 0.2, RatingWeight: 0.2}
	history := []recommend.WatchedItem{{ItemID: 1, Genres: []string{"Drama"}}}
	candidates := []recommend.Candidate{
		{ItemID: 10, Similarity: 0.9, Genres: []string{"Drama"}, CommunityRating: ptr(8)},
		{ItemID: 11, Similarity: 0.5},
		{ItemID: 12, Similarity: 1.7, Genres: []string{"Comedy"}, CommunityRating: ptr(11)},
	}

	got := NewScorer().Score(candidates, history, settings)
	if len(got) != 3 {
		t.Fatalf("Score() len = %d, want 3", len(got))
	}

	// 0.6*0.9 + 0.2*0 + 0.2*0.8
	if !approx(got[0].BaseScore, 0.7) {
		t.Errorf("BaseScore[0] = %v, want 0.7", got[0].BaseScore)
	}
	// Missing rating and genres fall back to neutral.
	if got[1].NoveltyScore != 0.5 || got[1].RatingScore != 0.5 {
		t.Errorf("neutral scores = (%v, %v), want (0.5, 0.5)", got[1].NoveltyScore, got[1].RatingScore)
	}
	if !approx(got[1].BaseScore, 0.6*0.5+0.2*0.5+0.2*0.5) {
		t.Errorf("BaseScore[1] = %v", got[1].BaseScore)
	}
	if got[2].Similarity != 1 {
		t.Errorf("similarity not clamped: %v", got[2].Similarity)
	}

	for i := range got {
		s := got[i]
		for _, v := range []float64{s.Similarity, s.NoveltyScore, s.RatingScore} {
			if v < 0 || v > 1 {
				t.Errorf("item %d sub-score %v outside [0,1]", s.ItemID, v)
			}
		}
		if s.BoostMultiplier() != 1 || s.FinalBase != s.BaseScore {
			t.Errorf("item %d not initialized neutral: multiplier=%v finalBase=%v", s.ItemID, s.BoostMultiplier(), s.FinalBase)
		}
	}
}

func TestScorer_Deterministic(t *testing.T) {
	settings := recommend.DefaultSettings(recommend.MediaMovie)
	history := []recommend.WatchedItem{
		{ItemID: 1, Genres: []string{"Sci-Fi", "Action"}},
		{ItemID: 2, Genres: []string{"Sci-Fi"}},
	}
	candidates := []recommend.Candidate{
		{ItemID: 5, Similarity: 0.8, Genres: []string{"Action", "Comedy"}, CommunityRating: ptr(6.4)},
		{ItemID: 6, Similarity: 0.7, Genres: []string{"Sci-Fi"}},
	}

	s := NewScorer()
	a := s.Score(candidates, history, settings)
	b := s.Score(candidates, history, settings)
	for i := range a {
		if a[i].BaseScore != b[i].BaseScore || a[i].NoveltyScore != b[i].NoveltyScore {
			t.Errorf("Score() not deterministic for item %d", a[i].ItemID)
		}
	}
}
