// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

// Package api exposes the recommendation engine over a small JSON HTTP API
// routed with Chi.
//
// # Endpoints
//
//	POST   /api/v1/users/{userID}/recommendations?kind=movie
//	POST   /api/v1/users/{userID}/recommendations/regenerate?kind=movie
//	GET    /api/v1/users/{userID}/recommendations?kind=movie
//	DELETE /api/v1/users/{userID}/recommendations[?kind=movie]
//	DELETE /api/v1/recommendations
//	POST   /api/v1/recommendations/batch
//	GET    /api/v1/jobs
//	GET    /api/v1/jobs/{jobID}
//	POST   /api/v1/jobs/{jobID}/cancel
//	GET    /health
//	GET    /metrics
//
// Every JSON response uses the APIResponse envelope. Batch generation is
// asynchronous: the batch endpoint returns 202 with the job, which is then
// polled through the jobs endpoints.
package api
