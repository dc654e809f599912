// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package recommend

import (
	"context"

	"github.com/tomtom215/curator/internal/logging"
)

// buildEvidence records why each selected item was chosen. Boost evidence
// comes from the scored fields; similar_watch evidence names the recent watch
// whose vector is closest to the selected item. Vector lookups are
// best-effort and only drop the similar_watch rows on failure.
//
//nolint:gocritic // rangeValCopy: selected items are read-only here
func (e *Engine) buildEvidence(ctx context.Context, runID, modelID string, selected []ScoredCandidate, recent []WatchedItem) []Evidence {
	evidence := make([]Evidence, 0, len(selected)*2)

	for _, s := range selected {
		if s.FranchiseBoost > 1 && s.Franchise != "" {
			evidence = append(evidence, Evidence{
				RunID: runID, ItemID: s.ItemID, Kind: EvidenceFranchise,
				Reference: s.Franchise, Weight: s.FranchiseBoost - 1,
			})
		}
		if s.GenreBoost > 1 && s.BoostGenre != "" {
			evidence = append(evidence, Evidence{
				RunID: runID, ItemID: s.ItemID, Kind: EvidenceGenre,
				Reference: s.BoostGenre, Weight: s.GenreBoost - 1,
			})
		}
		if s.InterestBoost > 1 && s.MatchedInterest != "" {
			evidence = append(evidence, Evidence{
				RunID: runID, ItemID: s.ItemID, Kind: EvidenceInterest,
				Reference: s.MatchedInterest, Weight: s.InterestBoost - 1,
			})
		}
	}

	if len(selected) == 0 || len(recent) == 0 {
		return evidence
	}

	ids := make([]int, 0, len(selected)+len(recent))
	for i := range selected {
		ids = append(ids, selected[i].ItemID)
	}
	for i := range recent {
		ids = append(ids, recent[i].ItemID)
	}
	vectors, err := e.deps.Embeddings.GetVectors(ctx, ids, modelID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Skipping similar-watch evidence")
		return evidence
	}

	for i := range selected {
		vec, ok := vectors[selected[i].ItemID]
		if !ok {
			continue
		}
		bestIdx, best := -1, 0.0
		for j := range recent {
			if recent[j].ItemID == selected[i].ItemID {
				continue
			}
			watched, ok := vectors[recent[j].ItemID]
			if !ok {
				continue
			}
			sim := UnitSimilarity(CosineSimilarity(vec, watched))
			if bestIdx < 0 || sim > best {
				bestIdx, best = j, sim
			}
		}
		if bestIdx < 0 {
			continue
		}
		evidence = append(evidence, Evidence{
			RunID:     runID,
			ItemID:    selected[i].ItemID,
			Kind:      EvidenceSimilarWatch,
			Reference: recent[bestIdx].Title,
			Weight:    best,
		})
	}
	return evidence
}
