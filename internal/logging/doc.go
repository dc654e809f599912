// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

// Package logging provides centralized zerolog-based logging for Curator.
//
// All components log through a single global zerolog logger configured once
// at startup. Pipeline code creates component loggers with
// logging.WithComponent and attaches run scoped fields (user, media kind,
// run id, job id) through the context helpers so every line emitted during a
// recommendation run can be correlated.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logger := logging.WithComponent("orchestrator")
//	logger.Info().Int("user_id", 42).Msg("Run started")
//
//	ctx = logging.ContextWithRun(ctx, runID, 42, "movie")
//	logging.Ctx(ctx).Debug().Msg("Candidates retrieved")
//
// # Configuration
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller info (default: false)
//
// # slog Interop
//
// Libraries that only accept *slog.Logger (sutureslog) are handed
// NewSlogLogger, which forwards every record to zerolog.
package logging
