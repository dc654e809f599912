// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package jobs

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the job has finished.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

var (
	// ErrJobNotFound is returned for unknown or expired job ids.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobFinished is returned when cancelling a job that already finished.
	ErrJobFinished = errors.New("job already finished")

	// ErrJobPending is returned when a job of the same kind is already queued.
	ErrJobPending = errors.New("a job of this kind is already pending")

	// ErrTrackerClosed is returned after Close.
	ErrTrackerClosed = errors.New("job tracker closed")
)

// Job is the persisted progress record of one background job.
type Job struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Status Status `json:"status"`

	Step       int    `json:"step"`
	TotalSteps int    `json:"total_steps"`
	StepLabel  string `json:"step_label,omitempty"`

	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`

	Summary map[string]interface{} `json:"summary,omitempty"`
	Error   string                 `json:"error,omitempty"`

	CancelRequested bool `json:"cancel_requested"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Percent returns item progress in [0, 100].
func (j *Job) Percent() float64 {
	if j.Total <= 0 {
		if j.Status.IsTerminal() {
			return 100
		}
		return 0
	}
	p := float64(j.Done) / float64(j.Total) * 100
	if p > 100 {
		return 100
	}
	return p
}
