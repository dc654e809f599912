// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/curator/internal/config"
	"github.com/tomtom215/curator/internal/logging"
	"github.com/tomtom215/curator/internal/metrics"
	"github.com/tomtom215/curator/internal/recommend"
)

const (
	keyPrefix        = "job:"
	defaultRetention = 7 * 24 * time.Hour
)

// Tracker stores jobs in BadgerDB.
type Tracker struct {
	db        *badger.DB
	retention time.Duration
	logger    zerolog.Logger

	// mu serializes read-modify-write updates so concurrent reporters
	// never hit badger transaction conflicts.
	mu     sync.Mutex
	closed bool

	now func() time.Time
}

// Open opens the job store described by cfg.
func Open(cfg *config.JobsConfig) (*Tracker, error) {
	opts := badger.DefaultOptions(cfg.StorePath)
	if cfg.StorePath == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = defaultRetention
	}

	logging.Info().
		Str("path", cfg.StorePath).
		Bool("in_memory", cfg.StorePath == "").
		Dur("retention", retention).
		Msg("Job store opened")

	return &Tracker{
		db:        db,
		retention: retention,
		logger:    logging.With().Str("component", "jobs").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the underlying store.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.db.Close()
}

// Create stores a new queued job of the given kind.
func (t *Tracker) Create(_ context.Context, kind string) (*Job, error) {
	now := t.now()
	job := &Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTrackerClosed
	}
	if err := t.db.Update(func(txn *badger.Txn) error {
		return t.put(txn, job)
	}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// Get returns a job or ErrJobNotFound.
func (t *Tracker) Get(_ context.Context, id string) (*Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTrackerClosed
	}

	var job *Job
	err := t.db.View(func(txn *badger.Txn) error {
		var err error
		job, err = t.get(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// List returns up to limit jobs, newest first. A limit of zero returns all.
func (t *Tracker) List(ctx context.Context, limit int) ([]*Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTrackerClosed
	}

	jobs := []*Job{}
	err := t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var job Job
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &job)
			}); err != nil {
				t.logger.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping unreadable job")
				continue
			}
			jobs = append(jobs, &job)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Cancel requests cancellation. A queued job is cancelled at once; a running
// job keeps running until its worker observes the request.
func (t *Tracker) Cancel(_ context.Context, id string) (*Job, error) {
	var out *Job
	err := t.update(id, func(job *Job) error {
		if job.Status.IsTerminal() {
			return ErrJobFinished
		}
		job.CancelRequested = true
		if job.Status == StatusQueued {
			t.finish(job, StatusCancelled)
		}
		out = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReportStep records the current phase of a job and marks it running.
func (t *Tracker) ReportStep(_ context.Context, jobID string, step, total int, label string) {
	t.report(jobID, func(job *Job) {
		job.Step = step
		job.TotalSteps = total
		job.StepLabel = label
	})
}

// ReportProgress records item progress within the current phase.
func (t *Tracker) ReportProgress(_ context.Context, jobID string, done, total int, message string) {
	t.report(jobID, func(job *Job) {
		job.Done = done
		job.Total = total
		job.Message = message
	})
}

// IsCancelled reports whether cancellation was requested. Unknown jobs are
// not cancelled.
func (t *Tracker) IsCancelled(ctx context.Context, jobID string) bool {
	if jobID == "" {
		return false
	}
	job, err := t.Get(ctx, jobID)
	if err != nil {
		return false
	}
	return job.CancelRequested
}

// Complete finishes a job with a summary. A job with a pending cancel
// request finishes as cancelled.
func (t *Tracker) Complete(_ context.Context, jobID string, summary map[string]interface{}) {
	t.report(jobID, func(job *Job) {
		job.Summary = summary
		if job.CancelRequested {
			t.finish(job, StatusCancelled)
			return
		}
		t.finish(job, StatusCompleted)
	})
}

// Fail finishes a job with an error.
func (t *Tracker) Fail(_ context.Context, jobID string, err error) {
	t.report(jobID, func(job *Job) {
		if err != nil {
			job.Error = err.Error()
		}
		t.finish(job, StatusFailed)
	})
}

// report applies fn to a non-terminal job and logs failures.
func (t *Tracker) report(jobID string, fn func(*Job)) {
	if jobID == "" {
		return
	}
	err := t.update(jobID, func(job *Job) error {
		if job.Status.IsTerminal() {
			return ErrJobFinished
		}
		if job.Status == StatusQueued {
			now := t.now()
			job.Status = StatusRunning
			job.StartedAt = &now
		}
		fn(job)
		return nil
	})
	if err != nil && !errors.Is(err, ErrJobFinished) {
		t.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to update job")
	}
}

func (t *Tracker) finish(job *Job, status Status) {
	now := t.now()
	job.Status = status
	job.CompletedAt = &now
	metrics.RecordJob(string(status))
}

func (t *Tracker) update(id string, fn func(*Job) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTrackerClosed
	}

	return t.db.Update(func(txn *badger.Txn) error {
		job, err := t.get(txn, id)
		if err != nil {
			return err
		}
		if err := fn(job); err != nil {
			return err
		}
		job.UpdatedAt = t.now()
		return t.put(txn, job)
	})
}

func (t *Tracker) get(txn *badger.Txn, id string) (*Job, error) {
	item, err := txn.Get([]byte(keyPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}

	var job Job
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &job)
	}); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

func (t *Tracker) put(txn *badger.Txn, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	return txn.SetEntry(badger.NewEntry([]byte(keyPrefix+job.ID), data).WithTTL(t.retention))
}

var _ recommend.JobTracker = (*Tracker)(nil)
