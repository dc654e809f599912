// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/curator/internal/jobs"
	"github.com/tomtom215/curator/internal/recommend"
)

// BatchJobKind is the job kind of all-users batches.
const BatchJobKind = "recommendations.batch"

// BatchRunner runs one all-users batch under a job id.
type BatchRunner interface {
	GenerateForAllUsers(ctx context.Context, jobID string) (*recommend.BatchResult, error)
}

// BatchJobs is the job tracker surface the service needs.
type BatchJobs interface {
	Create(ctx context.Context, kind string) (*jobs.Job, error)
	IsCancelled(ctx context.Context, jobID string) bool
}

// BatchServiceConfig holds configuration for the batch service.
type BatchServiceConfig struct {
	// Schedule is a five-field cron expression. Empty disables scheduling.
	Schedule string

	// RunOnStartup queues a batch as soon as the service starts.
	RunOnStartup bool

	// Timeout bounds a single batch. Zero means no limit.
	Timeout time.Duration
}

// BatchService runs scheduled and on-demand batches one at a time.
type BatchService struct {
	runner   BatchRunner
	jobs     BatchJobs
	schedule cron.Schedule
	config   BatchServiceConfig
	logger   zerolog.Logger
	name     string
	now      func() time.Time

	mu    sync.Mutex
	queue chan *jobs.Job
}

// NewBatchService creates the service and parses the schedule.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBatchService(runner BatchRunner, jobTracker BatchJobs, cfg BatchServiceConfig, logger zerolog.Logger) (*BatchService, error) {
	s := &BatchService{
		runner: runner,
		jobs:   jobTracker,
		config: cfg,
		logger: logger.With().Str("service", "batch").Logger(),
		name:   "batch-service",
		now:    time.Now,
		queue:  make(chan *jobs.Job, 1),
	}
	if cfg.Schedule != "" {
		schedule, err := cron.ParseStandard(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("parse batch schedule %q: %w", cfg.Schedule, err)
		}
		s.schedule = schedule
	}
	return s, nil
}

// StartBatch queues a batch and returns its job. Only one batch may wait in
// the queue; a second request gets jobs.ErrJobPending.
func (s *BatchService) StartBatch(ctx context.Context) (*jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == cap(s.queue) {
		return nil, jobs.ErrJobPending
	}
	job, err := s.jobs.Create(ctx, BatchJobKind)
	if err != nil {
		return nil, fmt.Errorf("create batch job: %w", err)
	}
	s.queue <- job

	s.logger.Info().Str("job_id", job.ID).Msg("batch queued")
	return job, nil
}

// Serve implements suture.Service.
func (s *BatchService) Serve(ctx context.Context) error {
	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Bool("run_on_startup", s.config.RunOnStartup).
		Msg("batch service starting")

	if s.config.RunOnStartup {
		if _, err := s.StartBatch(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("startup batch not queued")
		}
	}

	for {
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		if s.schedule != nil {
			now := s.now()
			next := s.schedule.Next(now)
			timer = time.NewTimer(next.Sub(now))
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			s.logger.Info().Msg("batch service shutting down")
			return ctx.Err()

		case <-timerC:
			s.logger.Debug().Msg("scheduled batch triggered")
			job, err := s.jobs.Create(ctx, BatchJobKind)
			if err != nil {
				s.logger.Error().Err(err).Msg("failed to create scheduled batch job")
				continue
			}
			s.run(ctx, job)

		case job := <-s.queue:
			stopTimer(timer)
			s.run(ctx, job)
		}
	}
}

// run executes one batch unless it was cancelled while queued.
func (s *BatchService) run(ctx context.Context, job *jobs.Job) {
	if s.jobs.IsCancelled(ctx, job.ID) {
		s.logger.Info().Str("job_id", job.ID).Msg("batch cancelled before start")
		return
	}

	runCtx := ctx
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.runner.GenerateForAllUsers(runCtx, job.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("batch failed")
		return
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Bool("cancelled", result.Cancelled).
		Dur("duration", time.Since(start)).
		Msg("batch finished")
}

// String implements fmt.Stringer.
func (s *BatchService) String() string {
	return s.name
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
