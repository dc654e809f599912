// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

/*
Package main is the entry point for the Curator server.

Curator reads a media library catalog and per-user watch history from DuckDB,
runs the recommendation pipeline for each eligible user and media kind, and
stores the ranked selections together with their evidence. An admin HTTP API
exposes generation, retrieval, clearing and batch job control.

# Application Architecture

	RootSupervisor ("curator")
	├── PipelineSupervisor ("pipeline-layer")
	│   ├── Batch Service (cron schedule + on-demand batches)
	│   └── Explanation Worker (optional)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB catalog, history, profiles and run storage
 4. Job Tracker: BadgerDB backed progress for batch jobs
 5. Event Bus: Watermill channel publishing run completion events
 6. Embeddings: LRU cached vector provider plus optional text embedding client
 7. Pipeline: profile, retrieval, scoring, boost and diversity stages
 8. Supervisor Tree: Suture v4 process supervision

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
  - Environment variables (e.g. HTTP_PORT, RECOMMEND_MOVIE_SELECTED_COUNT)
  - Config file (config.yaml, or the path in CONFIG_PATH)
  - Built-in defaults

Common settings:
  - DUCKDB_PATH: DuckDB file (default: /data/curator.duckdb)
  - RECOMMEND_SCHEDULE: batch cron expression (default: "0 3 * * *")
  - RECOMMEND_WORKERS: concurrent users per batch
  - EMBEDDING_URL: text embedding endpoint for custom interests
  - JOBS_STORE_PATH: BadgerDB directory for job progress

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
server gracefully, cancels any running batch, and reports services that did
not stop within the shutdown timeout.
*/
package main
