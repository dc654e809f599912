// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

// Package explain turns the evidence recorded for selected recommendations
// into short human readable explanations.
package explain

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/curator/internal/recommend"
)

// evidencePriority orders evidence kinds of equal weight.
var evidencePriority = map[recommend.EvidenceKind]int{
	recommend.EvidenceInterest:     0,
	recommend.EvidenceFranchise:    1,
	recommend.EvidenceSimilarWatch: 2,
	recommend.EvidenceGenre:        3,
}

// TemplateGenerator builds explanations from fixed sentence templates. It
// is deterministic and never fails.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a TemplateGenerator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Explain returns one explanation per selected record.
func (g *TemplateGenerator) Explain(_ context.Context, _ *recommend.User, records []recommend.CandidateRecord, evidence []recommend.Evidence) (map[int]string, error) {
	byItem := make(map[int][]recommend.Evidence)
	for _, e := range evidence {
		byItem[e.ItemID] = append(byItem[e.ItemID], e)
	}

	out := make(map[int]string, len(records))
	for i := range records {
		s := &records[i].Scored
		if !s.Selected {
			continue
		}
		out[s.ItemID] = g.explainOne(s, byItem[s.ItemID])
	}
	return out, nil
}

func (g *TemplateGenerator) explainOne(s *recommend.ScoredCandidate, evidence []recommend.Evidence) string {
	sort.SliceStable(evidence, func(i, j int) bool {
		if evidence[i].Weight != evidence[j].Weight {
			return evidence[i].Weight > evidence[j].Weight
		}
		return evidencePriority[evidence[i].Kind] < evidencePriority[evidence[j].Kind]
	})

	parts := make([]string, 0, 2)
	seen := make(map[recommend.EvidenceKind]bool)
	for _, e := range evidence {
		if seen[e.Kind] || len(parts) == 2 {
			continue
		}
		if sentence := sentenceFor(e); sentence != "" {
			parts = append(parts, sentence)
			seen[e.Kind] = true
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "Close to what you have been watching lately.")
	}

	if s.CommunityRating != nil && *s.CommunityRating >= 8 {
		parts = append(parts, fmt.Sprintf("Rated %.1f by the community.", *s.CommunityRating))
	}
	return strings.Join(parts, " ")
}

func sentenceFor(e recommend.Evidence) string {
	if e.Reference == "" {
		return ""
	}
	switch e.Kind {
	case recommend.EvidenceSimilarWatch:
		return fmt.Sprintf("Because you watched %s.", e.Reference)
	case recommend.EvidenceFranchise:
		return fmt.Sprintf("Part of the %s franchise you keep coming back to.", e.Reference)
	case recommend.EvidenceGenre:
		return fmt.Sprintf("Matches your taste for %s.", e.Reference)
	case recommend.EvidenceInterest:
		return fmt.Sprintf("Fits your interest in %q.", e.Reference)
	default:
		return ""
	}
}

var _ recommend.ExplanationGenerator = (*TemplateGenerator)(nil)
