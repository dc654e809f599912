// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package reranking

import (
	"math"
	"testing"

	"github.com/tomtom215/curator/internal/recommend"
)

func candidate(id, rank int, base float64, source string, genres ...string) recommend.ScoredCandidate {
	return recommend.ScoredCandidate{
		Candidate: recommend.Candidate{ItemID: id, Genres: genres, Source: source},
		FinalBase: base,
		Rank:      rank,
	}
}

func ids(items []recommend.ScoredCandidate) []int {
	out := make([]int, len(items))
	for i := range items {
		out[i] = items[i].ItemID
	}
	return out
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDiversitySelector_Name(t *testing.T) {
	if got := NewDiversitySelector().Name(); got != "diversity" {
		t.Errorf("Name() = %q, want diversity", got)
	}
}

func TestDiversitySelector_Select(t *testing.T) {
	items := []recommend.ScoredCandidate{
		candidate(1, 1, 1.0, "", "Action"),
		candidate(2, 2, 0.9, "", "Action"),
		candidate(3, 3, 0.8, "", "Comedy"),
		candidate(4, 4, 0.7, "", "Drama"),
	}

	tests := []struct {
		name   string
		n      int
		weight float64
		want   []int
	}{
		{"zero weight is top-N by base", 3, 0, []int{1, 2, 3}},
		{"diversity promotes unseen genre", 2, 0.5, []int{1, 3}},
		{"full diversity spreads genres", 3, 1, []int{1, 3, 4}},
		{"n larger than population", 10, 0, []int{1, 2, 3, 4}},
		{"weight above one is clamped", 3, 5, []int{1, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewDiversitySelector().Select(items, tt.n, tt.weight, false)
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Select() = %v, want %v", ids(got), tt.want)
			}
			for i := range got {
				if !got[i].Selected || got[i].SelectedRank != i+1 {
					t.Errorf("item %d: Selected=%v SelectedRank=%d, want true/%d",
						got[i].ItemID, got[i].Selected, got[i].SelectedRank, i+1)
				}
			}
		})
	}
}

func TestDiversitySelector_ZeroWeightLargePopulation(t *testing.T) {
	genres := []string{"Action", "Drama", "Comedy"}
	sources := []string{"HBO", "A24", "BBC", "Netflix"}

	// Input order is shuffled against base score: id i has base i/100 and
	// sits at position (i*7)%50, which is a permutation since 7 and 50 are coprime.
	items := make([]recommend.ScoredCandidate, 50)
	for i := 0; i < 50; i++ {
		items[(i*7)%50] = candidate(i, (i*7)%50+1, float64(i)/100, sources[i%len(sources)], genres[i%len(genres)])
	}

	got := NewDiversitySelector().Select(items, 12, 0, true)
	if len(got) != 12 {
		t.Fatalf("len(Select()) = %d, want 12", len(got))
	}
	want := make([]int, 0, 12)
	for id := 49; id >= 38; id-- {
		want = append(want, id)
	}
	if !equalIDs(ids(got), want) {
		t.Errorf("Select() = %v, want top 12 by base %v", ids(got), want)
	}
	for i := range got {
		if got[i].SelectedRank != i+1 || !got[i].Selected {
			t.Errorf("item %d: SelectedRank = %d, Selected = %v", got[i].ItemID, got[i].SelectedRank, got[i].Selected)
		}
		if !approx(got[i].FinalScore, got[i].FinalBase) {
			t.Errorf("item %d: FinalScore = %v, want FinalBase %v", got[i].ItemID, got[i].FinalScore, got[i].FinalBase)
		}
	}
	for i := range items {
		if items[i].Selected {
			t.Fatal("Select() modified its input")
		}
	}
}

func TestDiversitySelector_RecomputesFromBase(t *testing.T) {
	items := []recommend.ScoredCandidate{
		candidate(1, 1, 1.0, "", "Action"),
		candidate(2, 2, 0.9, "", "Action"),
		candidate(3, 3, 0.8, "", "Comedy"),
	}

	got := NewDiversitySelector().Select(items, 3, 0.5, false)
	if !equalIDs(ids(got), []int{1, 3, 2}) {
		t.Fatalf("Select() = %v, want [1 3 2]", ids(got))
	}

	// Item 2 overlaps once on Action: diversity 0.5, effective 0.5*0.9 + 0.5*0.5*0.9.
	if !approx(got[2].DiversityScore, 0.5) {
		t.Errorf("DiversityScore = %v, want 0.5", got[2].DiversityScore)
	}
	if !approx(got[2].FinalScore, 0.675) {
		t.Errorf("FinalScore = %v, want 0.675", got[2].FinalScore)
	}
	if !approx(got[1].FinalScore, 0.8) {
		t.Errorf("unpenalized FinalScore = %v, want 0.8", got[1].FinalScore)
	}
	if items[1].Selected || items[1].FinalScore != 0 {
		t.Error("Select() must not modify its input")
	}
}

func TestDiversitySelector_NetworkDiversity(t *testing.T) {
	items := []recommend.ScoredCandidate{
		candidate(1, 1, 1.0, "HBO", "Drama"),
		candidate(2, 2, 0.95, "HBO", "Drama"),
		candidate(3, 3, 0.9, "AMC", "Drama"),
	}

	tests := []struct {
		name    string
		network bool
		want    []int
	}{
		{"genres only", false, []int{1, 2}},
		{"network counted", true, []int{1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewDiversitySelector().Select(items, 2, 1, tt.network)
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Select() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestDiversitySelector_TieBreakByRank(t *testing.T) {
	items := []recommend.ScoredCandidate{
		candidate(30, 3, 0.5, ""),
		candidate(10, 1, 0.5, ""),
		candidate(20, 2, 0.5, ""),
	}

	got := NewDiversitySelector().Select(items, 3, 0.4, false)
	if !equalIDs(ids(got), []int{10, 20, 30}) {
		t.Errorf("Select() = %v, want [10 20 30]", ids(got))
	}
	for i := range got {
		if got[i].DiversityScore != 1 {
			t.Errorf("genre-less item %d DiversityScore = %v, want 1", got[i].ItemID, got[i].DiversityScore)
		}
	}
}

func TestDiversitySelector_Empty(t *testing.T) {
	s := NewDiversitySelector()
	if got := s.Select(nil, 5, 0.3, false); len(got) != 0 {
		t.Errorf("Select(nil) len = %d, want 0", len(got))
	}
	items := []recommend.ScoredCandidate{candidate(1, 1, 1, "", "Action")}
	if got := s.Select(items, 0, 0.3, false); len(got) != 0 {
		t.Errorf("Select(n=0) len = %d, want 0", len(got))
	}
}

func TestOverlap(t *testing.T) {
	counts := map[string]int{"action": 1, "drama": 2}

	tests := []struct {
		name  string
		attrs []string
		want  float64
	}{
		{"none", nil, 0},
		{"unseen", []string{"comedy"}, 0},
		{"seen once", []string{"action"}, 0.5},
		{"seen twice", []string{"drama"}, 2.0 / 3.0},
		{"mixed", []string{"action", "comedy"}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlap(tt.attrs, counts); !approx(got, tt.want) {
				t.Errorf("overlap(%v) = %v, want %v", tt.attrs, got, tt.want)
			}
		})
	}
}

func TestAttributes(t *testing.T) {
	c := candidate(1, 1, 1, "HBO", "Drama", "drama", " Crime ", "")
	got := attributes(&c, true)
	want := []string{"drama", "crime", "net:hbo"}
	if len(got) != len(want) {
		t.Fatalf("attributes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("attributes()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
