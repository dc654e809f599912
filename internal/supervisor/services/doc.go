// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

// Package services adapts Curator components to suture.Service.
//
//   - HTTPServerService: ListenAndServe/Shutdown to Serve
//   - BatchService: cron-scheduled and on-demand all-users batches
//
// Each service returns ctx.Err() on shutdown and any other error to request
// a restart, and implements fmt.Stringer for supervisor logs.
package services
