// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package explain

import (
	"context"
	"testing"

	"github.com/tomtom215/curator/internal/recommend"
)

func rating(v float64) *float64 { return &v }

func record(id int, selected bool, community *float64) recommend.CandidateRecord {
	return recommend.CandidateRecord{Scored: recommend.ScoredCandidate{
		Candidate: recommend.Candidate{ItemID: id, CommunityRating: community},
		Selected:  selected,
	}}
}

func TestTemplateGenerator_Explain(t *testing.T) {
	records := []recommend.CandidateRecord{
		record(1, true, rating(8.4)),
		record(2, true, nil),
		record(3, true, rating(6)),
		record(4, false, nil),
	}
	evidence := []recommend.Evidence{
		{ItemID: 1, Kind: recommend.EvidenceSimilarWatch, Reference: "Heat", Weight: 0.93},
		{ItemID: 1, Kind: recommend.EvidenceGenre, Reference: "Crime", Weight: 1.3},
		{ItemID: 1, Kind: recommend.EvidenceSimilarWatch, Reference: "Ronin", Weight: 0.9},
		{ItemID: 2, Kind: recommend.EvidenceFranchise, Reference: "Star Trek", Weight: 1.25},
		{ItemID: 2, Kind: recommend.EvidenceInterest, Reference: "first contact stories", Weight: 1.25},
		{ItemID: 4, Kind: recommend.EvidenceGenre, Reference: "Drama", Weight: 1},
	}

	got, err := NewTemplateGenerator().Explain(context.Background(), &recommend.User{ID: 1}, records, evidence)
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}

	tests := []struct {
		item int
		want string
	}{
		{1, "Matches your taste for Crime. Because you watched Heat. Rated 8.4 by the community."},
		{2, `Fits your interest in "first contact stories". Part of the Star Trek franchise you keep coming back to.`},
		{3, "Close to what you have been watching lately."},
	}
	for _, tt := range tests {
		if got[tt.item] != tt.want {
			t.Errorf("item %d:\n got  %q\n want %q", tt.item, got[tt.item], tt.want)
		}
	}
	if _, ok := got[4]; ok {
		t.Error("unselected item was explained")
	}
}

func TestTemplateGenerator_Deterministic(t *testing.T) {
	records := []recommend.CandidateRecord{record(1, true, nil)}
	evidence := []recommend.Evidence{
		{ItemID: 1, Kind: recommend.EvidenceGenre, Reference: "Drama", Weight: 1.1},
		{ItemID: 1, Kind: recommend.EvidenceSimilarWatch, Reference: "Succession", Weight: 1.1},
	}
	g := NewTemplateGenerator()
	first, _ := g.Explain(context.Background(), nil, records, evidence)
	for i := 0; i < 5; i++ {
		again, _ := g.Explain(context.Background(), nil, records, evidence)
		if again[1] != first[1] {
			t.Fatalf("explanation changed: %q vs %q", again[1], first[1])
		}
	}
	if first[1] != "Because you watched Succession. Matches your taste for Drama." {
		t.Errorf("explanation = %q", first[1])
	}
}
