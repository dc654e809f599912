// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Jobs      JobsConfig      `koanf:"jobs"`
}

// ServerConfig holds HTTP server settings for the admin API.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use NumCPU
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// RecommendConfig configures the recommendation pipeline and its batch scheduler.
type RecommendConfig struct {
	// Enabled turns on the scheduled batch service. The HTTP API works either way.
	Enabled bool `koanf:"enabled"`

	// Schedule is a standard five-field cron expression for batch runs.
	Schedule string `koanf:"schedule"`

	// RunOnStartup triggers one batch immediately after startup.
	RunOnStartup bool `koanf:"run_on_startup"`

	// Workers bounds how many users a batch processes concurrently. 1 is sequential.
	Workers int `koanf:"workers"`

	// MediaKinds lists the media kinds a batch generates for.
	MediaKinds []string `koanf:"media_kinds"`

	// ExplanationsEnabled starts the explanation worker that annotates completed runs.
	ExplanationsEnabled bool `koanf:"explanations_enabled"`

	// VectorCacheSize is the number of item embeddings kept in memory.
	VectorCacheSize int `koanf:"vector_cache_size"`

	// Movie and Series are administrator defaults merged over the hardcoded fallback.
	Movie  KindSettings `koanf:"movie"`
	Series KindSettings `koanf:"series"`

	// FranchiseRules replaces the built-in title pattern table when non-empty.
	FranchiseRules []FranchiseRule `koanf:"franchise_rules"`
}

// KindSettings is a partial set of recommendation settings. Nil fields are unset.
type KindSettings struct {
	MaxCandidates    *int           `koanf:"max_candidates"`
	SelectedCount    *int           `koanf:"selected_count"`
	SimilarityWeight *float64       `koanf:"similarity_weight"`
	NoveltyWeight    *float64       `koanf:"novelty_weight"`
	RatingWeight     *float64       `koanf:"rating_weight"`
	DiversityWeight  *float64       `koanf:"diversity_weight"`
	RecentWatchLimit *int           `koanf:"recent_watch_limit"`
	InterestTopK     *int           `koanf:"interest_top_k"`
	NetworkDiversity *bool          `koanf:"network_diversity"`
	ProfileMaxAge    *time.Duration `koanf:"profile_max_age"`
}

// FranchiseRule maps a title pattern to a franchise name.
type FranchiseRule struct {
	Pattern string `koanf:"pattern"`
	Name    string `koanf:"name"`
}

// EmbeddingConfig configures the text embedding service used for custom interests.
type EmbeddingConfig struct {
	// URL of an Ollama compatible embeddings endpoint. Empty disables interest boosts.
	URL     string        `koanf:"url"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is the sustained requests per second allowed against the service.
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`

	// BreakerFailures is the consecutive failure count that opens the circuit.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// JobsConfig configures the persistent job progress tracker.
type JobsConfig struct {
	// StorePath is the BadgerDB directory. Empty keeps jobs in memory.
	StorePath string        `koanf:"store_path"`
	Retention time.Duration `koanf:"retention"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
