// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

/*
Package supervisor runs Curator's long-lived services under a suture v4 tree.

	RootSupervisor ("curator")
	├── PipelineSupervisor ("pipeline-layer")
	│   ├── BatchService (cron schedule and API-triggered batches)
	│   └── explain.Worker (run-completed subscriber)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A failing explanation worker or batch loop is restarted with backoff without
taking the HTTP API down, and the reverse. Supervisor events are logged
through sutureslog into the zerolog-backed slog handler.
*/
package supervisor
