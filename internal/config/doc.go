// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

/*
Package config provides centralized configuration management for Curator.

Configuration is loaded with Koanf v2 in three layers, later layers winning:

 1. Defaults: built-in values from defaultConfig()
 2. Config file: optional YAML file (CONFIG_PATH, ./config.yaml, /etc/curator/config.yaml)
 3. Environment variables: mapped explicitly by envTransformFunc

# Recommendation Settings

The recommend.movie and recommend.series sections are the administrator
defaults of the settings merge. Every field is optional; a field left unset
falls through to the pipeline's hardcoded fallback for that media kind, and a
per-user override stored in the database wins over both.

	recommend:
	  schedule: "0 3 * * *"
	  workers: 2
	  movie:
	    selected_count: 20
	    diversity_weight: 0.4
	  franchise_rules:
	    - pattern: "(?i)^star wars"
	      name: "Star Wars"

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, CORS_ORIGINS, RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW

Database:
  - DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Recommendation pipeline:
  - RECOMMEND_ENABLED, RECOMMEND_SCHEDULE, RECOMMEND_RUN_ON_STARTUP, RECOMMEND_WORKERS
  - RECOMMEND_MEDIA_KINDS, RECOMMEND_EXPLANATIONS_ENABLED, RECOMMEND_VECTOR_CACHE_SIZE
  - RECOMMEND_MOVIE_* / RECOMMEND_SERIES_* (selected_count, max_candidates, weights)

Embedding service:
  - EMBEDDING_URL, EMBEDDING_MODEL, EMBEDDING_TIMEOUT, EMBEDDING_RATE_LIMIT, EMBEDDING_BURST

Jobs:
  - JOBS_STORE_PATH (empty keeps job state in memory), JOBS_RETENTION
*/
package config
