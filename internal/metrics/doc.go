// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

/*
Package metrics provides Prometheus metrics for the recommendation pipeline.

All collectors are registered with the default registry via promauto and
exposed at /metrics by the API router.

# Available Metrics

Run Metrics:
  - recommend_runs_total: Runs by terminal status (counter)
    Labels: media_kind, status (completed, failed, skipped)
  - recommend_run_duration_seconds: Per-user run latency (histogram)
  - recommend_stage_duration_seconds: Pipeline stage latency (histogram)
    Labels: stage (profile, retrieve, score, boost, select, persist)
  - recommend_candidates_retrieved: Candidates per run (histogram)
  - recommend_items_selected_total: Selected recommendations (counter)
  - recommend_active_runs: In-flight runs (gauge)
  - recommend_profiles_total: Profiles built or reused (counter)

Batch Metrics:
  - recommend_batch_users_total: Users by result (counter)
  - recommend_batch_duration_seconds: Batch latency (histogram)
  - recommend_batch_last_success_timestamp: Last uncancelled batch (gauge)

Embedding Metrics:
  - embedding_requests_total: Text embedding calls by result (counter)
  - embedding_request_duration_seconds: Embedding latency (histogram)
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_state_transitions_total: Breaker transitions (counter)

Cache, database, job, explanation and API metrics follow the same naming.

# Usage

	start := time.Now()
	// ... run ...
	metrics.RecordRun("movie", metrics.RunCompleted, time.Since(start), 180, 12)
*/
package metrics
