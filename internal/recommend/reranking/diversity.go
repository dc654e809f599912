// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package reranking

import (
	"strings"

	"github.com/tomtom215/curator/internal/recommend"
)

// maxSelectSize limits slice allocations; n is also bounded by len(ranked).
const maxSelectSize = 10000

// networkPrefix namespaces network/studio attributes away from genre names.
const networkPrefix = "net:"

// DiversitySelector implements greedy diminishing-returns diversity selection.
type DiversitySelector struct{}

// NewDiversitySelector creates a selector.
func NewDiversitySelector() *DiversitySelector {
	return &DiversitySelector{}
}

// Name returns the selector identifier.
func (d *DiversitySelector) Name() string {
	return "diversity"
}

// Select returns min(n, len(ranked)) candidates in selection order. The
// returned values are copies with DiversityScore, FinalScore, Selected and
// SelectedRank filled in; ranked is not modified.
//
//nolint:gocritic // rangeValCopy: ScoredCandidate copied on purpose, the input stays untouched
func (d *DiversitySelector) Select(ranked []recommend.ScoredCandidate, n int, diversityWeight float64, networkDiversity bool) []recommend.ScoredCandidate {
	if len(ranked) == 0 || n <= 0 {
		return []recommend.ScoredCandidate{}
	}
	if n > maxSelectSize {
		n = maxSelectSize
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	w := recommend.Clamp(diversityWeight, 0, 1)

	attrs := make([][]string, len(ranked))
	for i := range ranked {
		attrs[i] = attributes(&ranked[i], networkDiversity)
	}

	counts := make(map[string]int)
	taken := make([]bool, len(ranked))
	selected := make([]recommend.ScoredCandidate, 0, n)

	for len(selected) < n {
		best := -1
		var bestEff, bestDiv float64

		for i := range ranked {
			if taken[i] {
				continue
			}
			div := 1 - overlap(attrs[i], counts)
			base := ranked[i].FinalBase
			eff := (1-w)*base + w*div*base

			if best < 0 || better(eff, &ranked[i], bestEff, &ranked[best]) {
				best, bestEff, bestDiv = i, eff, div
			}
		}

		taken[best] = true
		for _, a := range attrs[best] {
			counts[a]++
		}

		pick := ranked[best]
		pick.DiversityScore = bestDiv
		pick.FinalScore = bestEff
		pick.Selected = true
		pick.SelectedRank = len(selected) + 1
		selected = append(selected, pick)
	}

	return selected
}

// better reports whether a candidate with effective score eff beats the
// current best: higher effective score, then higher base, then lower rank.
func better(eff float64, c *recommend.ScoredCandidate, bestEff float64, best *recommend.ScoredCandidate) bool {
	if eff != bestEff {
		return eff > bestEff
	}
	if c.FinalBase != best.FinalBase {
		return c.FinalBase > best.FinalBase
	}
	return c.Rank < best.Rank
}

// attributes returns the distinct lower-cased genres of a candidate plus its
// network when network diversity is on.
func attributes(c *recommend.ScoredCandidate, network bool) []string {
	seen := make(map[string]struct{}, len(c.Genres)+1)
	out := make([]string, 0, len(c.Genres)+1)
	for _, g := range c.Genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	if network {
		if src := strings.ToLower(strings.TrimSpace(c.Source)); src != "" {
			out = append(out, networkPrefix+src)
		}
	}
	return out
}

// overlap is the mean saturation c/(c+1) of the attributes. Candidates with
// no attributes have no measurable overlap.
func overlap(attrs []string, counts map[string]int) float64 {
	if len(attrs) == 0 {
		return 0
	}
	var sum float64
	for _, a := range attrs {
		c := float64(counts[a])
		sum += c / (c + 1)
	}
	return sum / float64(len(attrs))
}

// Ensure DiversitySelector implements the interface.
var _ recommend.Selector = (*DiversitySelector)(nil)
