// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package boost

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/curator/internal/recommend"
)

// dislikePenalty multiplies the final base of disliked items when the user
// chose to penalize rather than exclude them.
const dislikePenalty = 0.5

// Booster implements recommend.Booster and recommend.PreferenceDetector.
type Booster struct {
	catalog    recommend.CatalogStore
	prefs      recommend.PreferenceStore
	embeddings recommend.EmbeddingProvider
	rules      Rules
	logger     zerolog.Logger
}

// NewBooster creates a booster. A nil rules table uses DefaultRules.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBooster(catalog recommend.CatalogStore, prefs recommend.PreferenceStore, embeddings recommend.EmbeddingProvider, rules Rules, logger zerolog.Logger) *Booster {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Booster{
		catalog:    catalog,
		prefs:      prefs,
		embeddings: embeddings,
		rules:      rules,
		logger:     logger.With().Str("component", "booster").Logger(),
	}
}

// Detect recomputes and replaces the user's franchise preferences and genre weights.
func (b *Booster) Detect(ctx context.Context, userID int, kind recommend.MediaKind, history []recommend.WatchedItem) error {
	titles, err := b.catalog.ListCatalogTitles(ctx, kind)
	if err != nil {
		return fmt.Errorf("list catalog titles: %w", err)
	}

	franchises := DetectFranchises(history, titles, b.rules)
	if err := b.prefs.ReplaceFranchisePreferences(ctx, userID, kind, franchises); err != nil {
		return fmt.Errorf("save franchise preferences: %w", err)
	}

	genres := DetectGenreWeights(history)
	if err := b.prefs.ReplaceGenreWeights(ctx, userID, kind, genres); err != nil {
		return fmt.Errorf("save genre weights: %w", err)
	}

	b.logger.Debug().
		Int("user_id", userID).
		Str("media_kind", string(kind)).
		Int("franchises", len(franchises)).
		Int("genres", len(genres)).
		Msg("preferences detected")
	return nil
}

// Apply sets the three boosts and FinalBase on every candidate and returns
// them sorted by FinalBase descending (item ID ascending on ties) with Rank
// assigned. Preference lookups that fail leave the affected boost neutral.
//
//nolint:gocritic // req is passed by value as a request object
func (b *Booster) Apply(ctx context.Context, req recommend.BoostRequest, scored []recommend.ScoredCandidate) ([]recommend.ScoredCandidate, error) {
	out := make([]recommend.ScoredCandidate, len(scored))
	copy(out, scored)
	if len(out) == 0 {
		return out, nil
	}

	franchisePrefs := b.loadFranchisePreferences(ctx, req)
	genreWeights := b.loadGenreWeights(ctx, req)

	for i := range out {
		c := &out[i]
		c.FranchiseBoost, c.GenreBoost, c.InterestBoost = 1, 1, 1

		if name := b.rules.Resolve(c.Title, c.Collection); name != "" {
			c.Franchise = name
			if pref, ok := franchisePrefs[name]; ok {
				c.FranchiseBoost = FranchiseBoost(pref)
			}
		}
		c.GenreBoost, c.BoostGenre = GenreBoost(c.Genres, genreWeights)
		c.FinalBase = c.BaseScore * c.FranchiseBoost * c.GenreBoost
	}

	if req.InterestTopK > 0 {
		b.applyInterests(ctx, req, out)
	}

	for i := range out {
		c := &out[i]
		c.FinalBase = c.BaseScore * c.BoostMultiplier()
		if _, penalized := req.Penalized[c.ItemID]; penalized {
			c.FinalBase *= dislikePenalty
		}
		if c.FinalBase < 0 {
			c.FinalBase = 0
		}
	}

	SortByFinalBase(out)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// applyInterests boosts the top InterestTopK candidates by their current
// FinalBase. Candidates outside the slice keep the neutral 1.0.
//
//nolint:gocritic // req is passed by value as a request object
func (b *Booster) applyInterests(ctx context.Context, req recommend.BoostRequest, out []recommend.ScoredCandidate) {
	interests := b.loadInterests(ctx, req.UserID)
	if len(interests) == 0 {
		return
	}

	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		a, c := &out[order[x]], &out[order[y]]
		if a.FinalBase != c.FinalBase {
			return a.FinalBase > c.FinalBase
		}
		return a.ItemID < c.ItemID
	})
	if len(order) > req.InterestTopK {
		order = order[:req.InterestTopK]
	}

	ids := make([]int, len(order))
	for i, idx := range order {
		ids[i] = out[idx].ItemID
	}
	vectors, err := b.embeddings.GetVectors(ctx, ids, req.ModelID)
	if err != nil {
		b.logger.Warn().Err(err).Int("user_id", req.UserID).Msg("interest boost skipped: candidate vectors unavailable")
		return
	}

	interests = b.matchingDimension(req, interests, vectors)
	if len(interests) == 0 {
		return
	}

	for _, idx := range order {
		c := &out[idx]
		v, ok := vectors[c.ItemID]
		if !ok {
			continue
		}
		c.InterestBoost, c.MatchedInterest = InterestBoost(v, interests)
	}
}

// matchingDimension drops interests whose embedding length differs from the
// item vectors of the active model. Such interests were embedded by another
// model and would otherwise score zero against every candidate.
//
//nolint:gocritic // req is passed by value as a request object
func (b *Booster) matchingDimension(req recommend.BoostRequest, interests []Interest, vectors map[int][]float32) []Interest {
	dim := 0
	for _, v := range vectors {
		dim = len(v)
		break
	}
	if dim == 0 {
		return interests
	}

	kept := interests[:0:0]
	for _, in := range interests {
		if len(in.Vector) != dim {
			b.logger.Warn().
				Int("user_id", req.UserID).
				Str("model_id", req.ModelID).
				Str("interest", in.Text).
				Int("interest_dim", len(in.Vector)).
				Int("item_dim", dim).
				Msg("interest skipped: embedding dimension does not match the active model")
			continue
		}
		kept = append(kept, in)
	}
	return kept
}

func (b *Booster) loadFranchisePreferences(ctx context.Context, req recommend.BoostRequest) map[string]float64 {
	prefs, err := b.prefs.GetFranchisePreferences(ctx, req.UserID, req.MediaKind)
	if err != nil {
		b.logger.Warn().Err(err).Int("user_id", req.UserID).Msg("franchise boost skipped")
		return nil
	}
	out := make(map[string]float64, len(prefs))
	for _, p := range prefs {
		out[p.Franchise] = p.Preference
	}
	return out
}

func (b *Booster) loadGenreWeights(ctx context.Context, req recommend.BoostRequest) map[string]float64 {
	weights, err := b.prefs.GetGenreWeights(ctx, req.UserID, req.MediaKind)
	if err != nil {
		b.logger.Warn().Err(err).Int("user_id", req.UserID).Msg("genre boost skipped")
		return nil
	}
	out := make(map[string]float64, len(weights))
	for _, w := range weights {
		out[w.Genre] = w.Weight
	}
	return out
}

// loadInterests embeds the user's custom interests. Interests that fail to
// embed are skipped.
func (b *Booster) loadInterests(ctx context.Context, userID int) []Interest {
	texts, err := b.catalog.GetCustomInterests(ctx, userID)
	if err != nil {
		b.logger.Warn().Err(err).Int("user_id", userID).Msg("interest boost skipped: interests unavailable")
		return nil
	}

	interests := make([]Interest, 0, len(texts))
	for _, text := range texts {
		v, err := b.embeddings.TextEmbedding(ctx, text)
		if err != nil {
			b.logger.Warn().Err(err).Int("user_id", userID).Str("interest", text).Msg("failed to embed interest")
			continue
		}
		if len(v) > 0 {
			interests = append(interests, Interest{Text: text, Vector: v})
		}
	}
	return interests
}

// SortByFinalBase orders candidates by FinalBase descending, item ID ascending.
func SortByFinalBase(items []recommend.ScoredCandidate) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].FinalBase != items[j].FinalBase {
			return items[i].FinalBase > items[j].FinalBase
		}
		return items[i].ItemID < items[j].ItemID
	})
}

// Ensure Booster implements the interfaces.
var (
	_ recommend.Booster            = (*Booster)(nil)
	_ recommend.PreferenceDetector = (*Booster)(nil)
)
