// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/curator/internal/logging"
	"github.com/tomtom215/curator/internal/metrics"
)

// GenerateForAllUsers runs the pipeline for every eligible user and every
// configured media kind. A user counts as failed when any of its kinds fails;
// one failure never stops the batch. Progress and cancellation go through the
// job tracker when jobID is set.
func (e *Engine) GenerateForAllUsers(ctx context.Context, jobID string) (*BatchResult, error) {
	start := time.Now()
	if jobID != "" {
		ctx = logging.ContextWithJobID(ctx, jobID)
	}
	log := logging.Ctx(ctx)
	result := &BatchResult{JobID: jobID}

	e.reportStep(ctx, jobID, 1, 2, "Loading eligible users")
	users, err := e.deps.Catalog.ListEligibleUsers(ctx)
	if err != nil {
		err = fmt.Errorf("list eligible users: %w", err)
		if e.deps.Jobs != nil && jobID != "" {
			e.deps.Jobs.Fail(ctx, jobID, err)
		}
		return nil, err
	}

	e.reportStep(ctx, jobID, 2, 2, "Generating recommendations")
	log.Info().Int("users", len(users)).Int("workers", e.opts.Workers).Msg("Batch generation started")

	var (
		mu        sync.Mutex
		processed int
	)
	record := func(ok bool, count int, stopped bool) {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			result.Cancelled = true
		}
		processed++
		if ok {
			result.Success++
		} else {
			result.Failed++
		}
		result.TotalRecommendations += count
		if e.deps.Jobs != nil && jobID != "" {
			e.deps.Jobs.ReportProgress(ctx, jobID, processed, len(users),
				fmt.Sprintf("%d of %d users processed", processed, len(users)))
		}
	}

	var g errgroup.Group
	g.SetLimit(e.opts.Workers)

	for i := range users {
		if e.cancelled(ctx) {
			mu.Lock()
			result.Cancelled = true
			mu.Unlock()
			break
		}
		user := users[i]
		g.Go(func() error {
			// Queued users may start after the job was cancelled.
			if e.cancelled(ctx) {
				mu.Lock()
				result.Cancelled = true
				mu.Unlock()
				return nil
			}
			ok, count, stopped := e.generateUser(ctx, &user)
			record(ok, count, stopped)
			return nil
		})
	}
	_ = g.Wait()

	if !result.Cancelled && e.cancelled(ctx) && processed < len(users) {
		result.Cancelled = true
	}

	elapsed := time.Since(start)
	metrics.RecordBatch(elapsed, result.Success, result.Failed, result.Cancelled)

	if e.deps.Jobs != nil && jobID != "" {
		// The job context may already be cancelled; the tracker still needs the final state.
		e.deps.Jobs.Complete(context.WithoutCancel(ctx), jobID, map[string]interface{}{
			"success":               result.Success,
			"failed":                result.Failed,
			"total_recommendations": result.TotalRecommendations,
			"cancelled":             result.Cancelled,
		})
	}

	log.Info().
		Int("success", result.Success).
		Int("failed", result.Failed).
		Int("total_recommendations", result.TotalRecommendations).
		Bool("cancelled", result.Cancelled).
		Dur("duration", elapsed).
		Msg("Batch generation finished")

	return result, nil
}

// generateUser runs every configured kind for one user. A run already in
// progress for a kind is skipped without counting as a failure. Cancellation
// is checked before each kind after the first; stopped reports that kinds
// were left unprocessed.
func (e *Engine) generateUser(ctx context.Context, user *User) (ok bool, count int, stopped bool) {
	ok = true
	for i, kind := range e.opts.MediaKinds {
		if i > 0 && e.cancelled(ctx) {
			logging.Ctx(ctx).Debug().Int("user_id", user.ID).Str("media_kind", string(kind)).Msg("Batch cancelled, remaining kinds skipped")
			return ok, count, true
		}
		res, err := e.GenerateForUser(ctx, user.ID, kind, nil)
		if res != nil {
			count += len(res.Recommendations)
		}
		if err == nil {
			continue
		}
		if errors.Is(err, ErrRunInProgress) {
			logging.Ctx(ctx).Debug().Int("user_id", user.ID).Str("media_kind", string(kind)).Msg("Run already in progress, skipped")
			continue
		}
		ok = false
		logging.Ctx(ctx).Warn().Err(err).Int("user_id", user.ID).Str("media_kind", string(kind)).Msg("User generation failed")
	}
	return ok, count, false
}

func (e *Engine) reportStep(ctx context.Context, jobID string, step, total int, label string) {
	if e.deps.Jobs != nil && jobID != "" {
		e.deps.Jobs.ReportStep(ctx, jobID, step, total, label)
	}
}
