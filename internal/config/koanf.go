// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/curator/config.yaml",
	"/etc/curator/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// Recommendation kind settings are left unset so the pipeline fallback applies.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8642,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "/data/curator.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: RecommendConfig{
			Enabled:             true,
			Schedule:            "0 3 * * *",
			RunOnStartup:        false,
			Workers:             1,
			MediaKinds:          []string{"movie", "series"},
			ExplanationsEnabled: true,
			VectorCacheSize:     10000,
		},
		Embedding: EmbeddingConfig{
			URL:             "",
			Model:           "nomic-embed-text",
			Timeout:         15 * time.Second,
			RateLimit:       5,
			Burst:           5,
			BreakerFailures: 5,
			BreakerTimeout:  60 * time.Second,
		},
		Jobs: JobsConfig{
			StorePath: "/data/jobs",
			Retention: 7 * 24 * time.Hour,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in defaults
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// RECOMMEND_MOVIE_SELECTED_COUNT -> recommend.movie.selected_count
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
	"recommend.media_kinds",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// kindSettingKeys are the per-kind setting names reachable through
// RECOMMEND_MOVIE_<KEY> and RECOMMEND_SERIES_<KEY>.
var kindSettingKeys = []string{
	"max_candidates",
	"selected_count",
	"similarity_weight",
	"novelty_weight",
	"rating_weight",
	"diversity_weight",
	"recent_watch_limit",
	"interest_top_k",
	"network_diversity",
	"profile_max_age",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//   - RECOMMEND_SERIES_DIVERSITY_WEIGHT -> recommend.series.diversity_weight
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":           "server.port",
		"http_host":           "server.host",
		"http_timeout":        "server.timeout",
		"cors_origins":        "server.cors_origins",
		"rate_limit_requests": "server.rate_limit_reqs",
		"rate_limit_window":   "server.rate_limit_window",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Recommendation pipeline mappings
		"recommend_enabled":              "recommend.enabled",
		"recommend_schedule":             "recommend.schedule",
		"recommend_run_on_startup":       "recommend.run_on_startup",
		"recommend_workers":              "recommend.workers",
		"recommend_media_kinds":          "recommend.media_kinds",
		"recommend_explanations_enabled": "recommend.explanations_enabled",
		"recommend_vector_cache_size":    "recommend.vector_cache_size",

		// Embedding service mappings
		"embedding_url":              "embedding.url",
		"embedding_model":            "embedding.model",
		"embedding_timeout":          "embedding.timeout",
		"embedding_rate_limit":       "embedding.rate_limit",
		"embedding_burst":            "embedding.burst",
		"embedding_breaker_failures": "embedding.breaker_failures",
		"embedding_breaker_timeout":  "embedding.breaker_timeout",

		// Jobs mappings
		"jobs_store_path": "jobs.store_path",
		"jobs_retention":  "jobs.retention",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	for _, kind := range []string{"movie", "series"} {
		prefix := "recommend_" + kind + "_"
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		setting := strings.TrimPrefix(key, prefix)
		for _, known := range kindSettingKeys {
			if setting == known {
				return "recommend." + kind + "." + setting
			}
		}
	}

	return ""
}
