// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

// validateRecommend validates the batch schedule, media kinds, franchise
// rules and the ranges of any administrator defaults that are set.
func (c *Config) validateRecommend() error {
	r := &c.Recommend

	if r.Enabled {
		if _, err := cron.ParseStandard(r.Schedule); err != nil {
			return fmt.Errorf("RECOMMEND_SCHEDULE is invalid: %w", err)
		}
	}
	if r.Workers < 1 {
		return fmt.Errorf("RECOMMEND_WORKERS must be at least 1, got %d", r.Workers)
	}
	if len(r.MediaKinds) == 0 {
		return fmt.Errorf("RECOMMEND_MEDIA_KINDS must name at least one media kind")
	}
	for _, kind := range r.MediaKinds {
		if kind != "movie" && kind != "series" {
			return fmt.Errorf("RECOMMEND_MEDIA_KINDS contains unknown media kind %q", kind)
		}
	}
	if r.VectorCacheSize < 0 {
		return fmt.Errorf("RECOMMEND_VECTOR_CACHE_SIZE must not be negative")
	}

	for i, rule := range r.FranchiseRules {
		if strings.TrimSpace(rule.Name) == "" {
			return fmt.Errorf("recommend.franchise_rules[%d]: name is required", i)
		}
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("recommend.franchise_rules[%d]: invalid pattern: %w", i, err)
		}
	}

	if err := r.Movie.validate("RECOMMEND_MOVIE"); err != nil {
		return err
	}
	return r.Series.validate("RECOMMEND_SERIES")
}

func (k *KindSettings) validate(prefix string) error {
	for name, v := range map[string]*int{
		"MAX_CANDIDATES":     k.MaxCandidates,
		"SELECTED_COUNT":     k.SelectedCount,
		"RECENT_WATCH_LIMIT": k.RecentWatchLimit,
		"INTEREST_TOP_K":     k.InterestTopK,
	} {
		if v != nil && *v < 1 {
			return fmt.Errorf("%s_%s must be at least 1, got %d", prefix, name, *v)
		}
	}
	for name, v := range map[string]*float64{
		"SIMILARITY_WEIGHT": k.SimilarityWeight,
		"NOVELTY_WEIGHT":    k.NoveltyWeight,
		"RATING_WEIGHT":     k.RatingWeight,
		"DIVERSITY_WEIGHT":  k.DiversityWeight,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s_%s must be between 0 and 1, got %v", prefix, name, *v)
		}
	}
	if k.ProfileMaxAge != nil && *k.ProfileMaxAge < 0 {
		return fmt.Errorf("%s_PROFILE_MAX_AGE must not be negative", prefix)
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	if c.Embedding.URL == "" {
		return nil
	}
	parsed, err := url.Parse(c.Embedding.URL)
	if err != nil {
		return fmt.Errorf("EMBEDDING_URL failed to parse: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("EMBEDDING_URL scheme must be http or https, got: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("EMBEDDING_URL host is required")
	}
	if c.Embedding.RateLimit <= 0 {
		return fmt.Errorf("EMBEDDING_RATE_LIMIT must be positive")
	}
	if c.Embedding.Burst < 1 {
		return fmt.Errorf("EMBEDDING_BURST must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
