// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tomtom215/curator/internal/config"
	"github.com/tomtom215/curator/internal/database"
	"github.com/tomtom215/curator/internal/embedding"
	"github.com/tomtom215/curator/internal/eventbus"
	"github.com/tomtom215/curator/internal/jobs"
	"github.com/tomtom215/curator/internal/recommend"
	"github.com/tomtom215/curator/internal/recommend/boost"
	"github.com/tomtom215/curator/internal/recommend/profile"
	"github.com/tomtom215/curator/internal/recommend/reranking"
	"github.com/tomtom215/curator/internal/recommend/retrieval"
	"github.com/tomtom215/curator/internal/recommend/scoring"
)

// pipelineDeps are the long-lived resources the pipeline is assembled from.
type pipelineDeps struct {
	db         *database.DB
	tracker    *jobs.Tracker
	bus        *eventbus.Bus
	embeddings *embedding.Provider
}

// initEngine assembles the pipeline stages into a recommend.Engine.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initEngine(cfg *config.Config, deps pipelineDeps, logger zerolog.Logger) (*recommend.Engine, error) {
	kinds, err := parseMediaKinds(cfg.Recommend.MediaKinds)
	if err != nil {
		return nil, err
	}

	rules, err := franchiseRules(cfg.Recommend.FranchiseRules)
	if err != nil {
		return nil, err
	}

	booster := boost.NewBooster(deps.db, deps.db, deps.embeddings, rules, logger)

	engine, err := recommend.NewEngine(recommend.Deps{
		Catalog:     deps.db,
		Runs:        deps.db,
		Embeddings:  deps.embeddings,
		Settings:    recommend.NewSettingsResolver(adminOverrides(&cfg.Recommend), deps.db),
		Profiles:    profile.NewBuilder(deps.embeddings, deps.db, logger),
		Preferences: booster,
		Retriever:   retrieval.NewRetriever(deps.db, logger),
		Scorer:      scoring.NewScorer(),
		Booster:     booster,
		Selector:    reranking.NewDiversitySelector(),
		Jobs:        deps.tracker,
		Publisher:   deps.bus,
	}, recommend.Options{
		Workers:    cfg.Recommend.Workers,
		MediaKinds: kinds,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create recommendation engine: %w", err)
	}

	logger.Info().
		Int("workers", cfg.Recommend.Workers).
		Strs("media_kinds", cfg.Recommend.MediaKinds).
		Int("franchise_rules", len(rules)).
		Msg("recommendation engine initialized")

	return engine, nil
}

func parseMediaKinds(names []string) ([]recommend.MediaKind, error) {
	kinds := make([]recommend.MediaKind, 0, len(names))
	for _, name := range names {
		kind, err := recommend.ParseMediaKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// adminOverrides converts the configured per-kind defaults into settings overrides.
func adminOverrides(cfg *config.RecommendConfig) map[recommend.MediaKind]*recommend.SettingsOverride {
	movie := recommend.SettingsOverride(cfg.Movie)
	series := recommend.SettingsOverride(cfg.Series)
	return map[recommend.MediaKind]*recommend.SettingsOverride{
		recommend.MediaMovie:  &movie,
		recommend.MediaSeries: &series,
	}
}

// franchiseRules compiles configured rules, falling back to the built-in table.
func franchiseRules(defs []config.FranchiseRule) (boost.Rules, error) {
	if len(defs) == 0 {
		return boost.DefaultRules(), nil
	}
	ruleDefs := make([]boost.RuleDef, 0, len(defs))
	for _, d := range defs {
		ruleDefs = append(ruleDefs, boost.RuleDef{Pattern: d.Pattern, Name: d.Name})
	}
	rules, err := boost.CompileRules(ruleDefs)
	if err != nil {
		return nil, fmt.Errorf("compile franchise rules: %w", err)
	}
	return rules, nil
}
