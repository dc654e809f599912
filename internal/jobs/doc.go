// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

/*
Package jobs tracks long-running background work such as batch
recommendation runs.

Jobs are stored as JSON values in BadgerDB under "job:<id>" keys with a
retention TTL, so finished jobs expire on their own. With an empty store
path BadgerDB runs in memory and jobs are lost on restart.

A Job moves queued -> running -> completed | failed | cancelled. Cancel only
sets a flag; the worker observes it through IsCancelled and finishes the job,
which then completes as cancelled.

Tracker implements recommend.JobTracker. Its reporting methods never fail the
caller: store errors are logged and dropped.
*/
package jobs
