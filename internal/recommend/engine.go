// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/curator/internal/logging"
	"github.com/tomtom215/curator/internal/metrics"
)

// Stage names used for metrics and logs.
const (
	stageProfile   = "profile"
	stageRetrieve  = "retrieve"
	stageScore     = "score"
	stageBoost     = "boost"
	stageSelect    = "select"
	stagePersist   = "persist"
	stageEvidence  = "evidence"
	stageDetection = "detect_preferences"
)

// Deps are the collaborators of an Engine. Jobs, Publisher and Preferences
// are optional.
type Deps struct {
	Catalog    CatalogStore
	Runs       RunStore
	Embeddings EmbeddingProvider
	Settings   SettingsProvider

	Profiles    ProfileBuilder
	Preferences PreferenceDetector
	Retriever   CandidateRetriever
	Scorer      Scorer
	Booster     Booster
	Selector    Selector

	Jobs      JobTracker
	Publisher RunPublisher
}

// Options tune batch execution.
type Options struct {
	// Workers bounds concurrent users in a batch. Values below 1 mean 1.
	Workers int

	// MediaKinds are generated by batches, in order. Empty means AllMediaKinds.
	MediaKinds []MediaKind
}

// Engine sequences the pipeline stages for one user and media kind and
// persists the outcome as a run. It is safe for concurrent use; runs for the
// same user and media kind never overlap.
type Engine struct {
	deps   Deps
	opts   Options
	active *ActiveRuns
	logger zerolog.Logger
	now    func() time.Time
}

// NewEngine validates deps and creates an Engine.
//
//nolint:gocritic // deps and logger are passed by value once at startup
func NewEngine(deps Deps, opts Options, logger zerolog.Logger) (*Engine, error) {
	required := map[string]interface{}{
		"catalog":    deps.Catalog,
		"runs":       deps.Runs,
		"embeddings": deps.Embeddings,
		"settings":   deps.Settings,
		"profiles":   deps.Profiles,
		"retriever":  deps.Retriever,
		"scorer":     deps.Scorer,
		"booster":    deps.Booster,
		"selector":   deps.Selector,
	}
	for name, dep := range required {
		if dep == nil {
			return nil, fmt.Errorf("recommend engine: missing %s dependency", name)
		}
	}

	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if len(opts.MediaKinds) == 0 {
		opts.MediaKinds = AllMediaKinds
	}

	return &Engine{
		deps:   deps,
		opts:   opts,
		active: NewActiveRuns(),
		logger: logger.With().Str("component", "recommend").Logger(),
		now:    time.Now,
	}, nil
}

// ActiveRuns exposes the run registry for health reporting.
func (e *Engine) ActiveRuns() *ActiveRuns {
	return e.active
}

// runRequest is one pipeline execution.
type runRequest struct {
	userID   int
	kind     MediaKind
	override *SettingsOverride
	force    bool
}

// GenerateForUser runs the pipeline for one user and media kind. A user with
// no usable history gets a completed run with no recommendations. When a
// stage fails the run is recorded as failed and the error is returned along
// with the result.
func (e *Engine) GenerateForUser(ctx context.Context, userID int, kind MediaKind, override *SettingsOverride) (*GenerateResult, error) {
	if _, err := ParseMediaKind(string(kind)); err != nil {
		return nil, err
	}
	if !e.active.TryAcquire(userID, kind) {
		metrics.RecordRun(string(kind), metrics.RunSkipped, 0, 0, 0)
		return nil, fmt.Errorf("user %d %s: %w", userID, kind, ErrRunInProgress)
	}
	defer e.active.Release(userID, kind)

	return e.generate(ctx, runRequest{userID: userID, kind: kind, override: override})
}

// RegenerateForUser deletes the user's results for kind, including running
// rows left behind by an interrupted process, rebuilds the taste profile and
// runs the pipeline again.
func (e *Engine) RegenerateForUser(ctx context.Context, userID int, kind MediaKind) (*RegenerateResult, error) {
	if _, err := ParseMediaKind(string(kind)); err != nil {
		return nil, err
	}
	if !e.active.TryAcquire(userID, kind) {
		return nil, fmt.Errorf("user %d %s: %w", userID, kind, ErrRunInProgress)
	}
	defer e.active.Release(userID, kind)

	if err := e.deps.Runs.DeleteUserResults(ctx, userID, kind, e.active.RunIDs()); err != nil {
		return nil, fmt.Errorf("delete previous results: %w", err)
	}

	res, err := e.generate(ctx, runRequest{userID: userID, kind: kind, force: true})
	if res == nil {
		return nil, err
	}
	return &RegenerateResult{RunID: res.RunID, Count: len(res.Recommendations)}, err
}

// ClearForUser deletes the user's runs except those in flight. An empty kind
// clears every kind.
func (e *Engine) ClearForUser(ctx context.Context, userID int, kind MediaKind) error {
	if kind != "" {
		if _, err := ParseMediaKind(string(kind)); err != nil {
			return err
		}
	}
	if err := e.deps.Runs.DeleteUserResults(ctx, userID, kind, e.active.RunIDs()); err != nil {
		return fmt.Errorf("clear recommendations for user %d: %w", userID, err)
	}
	e.logger.Info().Int("user_id", userID).Str("media_kind", string(kind)).Msg("Recommendations cleared")
	return nil
}

// ClearAll deletes every run except those in flight.
func (e *Engine) ClearAll(ctx context.Context) error {
	if err := e.deps.Runs.DeleteAllResults(ctx, e.active.RunIDs()); err != nil {
		return fmt.Errorf("clear all recommendations: %w", err)
	}
	e.logger.Info().Msg("All recommendations cleared")
	return nil
}

// LatestRecommendations returns the most recent completed run of a user and
// its selected items in selection order. Run is nil when there is none.
func (e *Engine) LatestRecommendations(ctx context.Context, userID int, kind MediaKind) (*LatestResult, error) {
	if _, err := ParseMediaKind(string(kind)); err != nil {
		return nil, err
	}

	run, err := e.deps.Runs.LatestRun(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	out := &LatestResult{Run: run, Items: []CandidateRecord{}}
	if run == nil {
		return out, nil
	}

	items, err := e.deps.Runs.ListCandidates(ctx, run.ID, true)
	if err != nil {
		return nil, fmt.Errorf("list selected candidates: %w", err)
	}
	out.Items = items
	return out, nil
}

// generate creates, executes and finalizes one run. The caller holds the
// active-run guard.
//
//nolint:gocritic // req is passed by value as a request object
func (e *Engine) generate(ctx context.Context, req runRequest) (*GenerateResult, error) {
	user, err := e.deps.Catalog.GetUser(ctx, req.userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	start := e.now()
	run := &Run{
		ID:        uuid.New().String(),
		UserID:    req.userID,
		MediaKind: req.kind,
		JobID:     logging.JobIDFromContext(ctx),
		Status:    RunRunning,
		StartedAt: start.UTC(),
	}
	e.active.Attach(req.userID, req.kind, run.ID)
	if err := e.deps.Runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	ctx = logging.ContextWithRun(ctx, run.ID, run.UserID, string(run.MediaKind))
	log := logging.Ctx(ctx)

	metrics.TrackActiveRun(true)
	defer metrics.TrackActiveRun(false)

	selected, candidateCount, runErr := e.execute(ctx, run, user, req)

	done := e.now()
	run.DurationMS = done.Sub(start).Milliseconds()
	run.CompletedAt = &done
	run.CandidateCount = candidateCount
	run.SelectedCount = len(selected)
	if runErr != nil {
		run.Status = RunFailed
		run.ErrorMessage = runErr.Error()
		selected = []ScoredCandidate{}
		run.SelectedCount = 0
	} else {
		run.Status = RunCompleted
	}

	// Finalize with a fresh context so a cancelled request still records the outcome.
	finalizeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := e.deps.Runs.FinalizeRun(finalizeCtx, run); err != nil {
		log.Error().Err(err).Msg("Failed to finalize run")
		if runErr == nil {
			runErr = fmt.Errorf("finalize run: %w", err)
		}
	}

	status := metrics.RunCompleted
	if run.Status == RunFailed {
		status = metrics.RunFailed
	}
	metrics.RecordRun(string(run.MediaKind), status, done.Sub(start), candidateCount, run.SelectedCount)

	result := &GenerateResult{RunID: run.ID, Status: run.Status, Recommendations: selected}
	if run.Status == RunFailed {
		log.Warn().Err(runErr).Int64("duration_ms", run.DurationMS).Msg("Recommendation run failed")
		return result, runErr
	}

	log.Info().
		Int("candidates", candidateCount).
		Int("selected", run.SelectedCount).
		Bool("profile_rebuilt", run.ProfileRebuilt).
		Int64("duration_ms", run.DurationMS).
		Msg("Recommendation run completed")

	if run.SelectedCount > 0 && e.deps.Publisher != nil {
		event := RunCompletedEvent{
			RunID:       run.ID,
			UserID:      run.UserID,
			MediaKind:   run.MediaKind,
			Selected:    run.SelectedCount,
			CompletedAt: done.UTC(),
		}
		if err := e.deps.Publisher.PublishRunCompleted(ctx, event); err != nil {
			log.Warn().Err(err).Msg("Failed to publish run completion")
		}
	}
	return result, runErr
}

// execute runs the pipeline stages in order. Expected-empty conditions
// return no selections and a nil error.
//
//nolint:gocritic // req is passed by value as a request object
func (e *Engine) execute(ctx context.Context, run *Run, user *User, req runRequest) ([]ScoredCandidate, int, error) {
	log := logging.Ctx(ctx)
	empty := []ScoredCandidate{}

	settings, err := e.deps.Settings.Resolve(ctx, user.ID, req.kind, req.override)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve settings: %w", err)
	}

	modelID, err := e.deps.Embeddings.ActiveModelID(ctx)
	if errors.Is(err, ErrNoEmbeddingModel) {
		log.Warn().Msg("No active embedding model, skipping run")
		return empty, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("active embedding model: %w", err)
	}
	run.ModelID = modelID

	history, err := e.deps.Catalog.GetWatchHistory(ctx, user.ID, req.kind, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("load watch history: %w", err)
	}
	if len(history) == 0 {
		log.Debug().Msg("No watch history")
		return empty, 0, nil
	}
	recent := history
	if settings.RecentWatchLimit > 0 && len(recent) > settings.RecentWatchLimit {
		recent = recent[:settings.RecentWatchLimit]
	}

	stageStart := time.Now()
	profile, fresh, err := e.deps.Profiles.Build(ctx, ProfileRequest{
		UserID:    user.ID,
		MediaKind: req.kind,
		ModelID:   modelID,
		History:   recent,
		MaxAge:    settings.ProfileMaxAge,
		Force:     req.force,
	})
	metrics.ObserveStage(stageProfile, stageStart)
	if err != nil {
		return nil, 0, fmt.Errorf("build taste profile: %w", err)
	}
	if profile == nil {
		log.Debug().Int("watched", len(recent)).Msg("No taste profile, watched items have no embeddings")
		return empty, 0, nil
	}
	run.ProfileRebuilt = fresh
	metrics.RecordProfile(fresh)

	if fresh && e.deps.Preferences != nil {
		stageStart = time.Now()
		if err := e.deps.Preferences.Detect(ctx, user.ID, req.kind, history); err != nil {
			log.Warn().Err(err).Msg("Preference detection failed, using stored preferences")
		}
		metrics.ObserveStage(stageDetection, stageStart)
	}

	if e.cancelled(ctx) {
		log.Info().Msg("Job cancelled before retrieval")
		return empty, 0, nil
	}

	exclude, penalized, err := e.exclusions(ctx, user.ID, req.kind, history)
	if err != nil {
		return nil, 0, err
	}

	var ceiling *int
	if level, ok := ContentRatingLevel(user.MaxContentRating); ok {
		ceiling = &level
	}

	stageStart = time.Now()
	candidates, err := e.deps.Retriever.Retrieve(ctx, RetrievalRequest{
		MediaKind:      req.kind,
		ModelID:        modelID,
		Vector:         profile.Vector,
		Limit:          settings.MaxCandidates,
		Exclude:        exclude,
		MaxRatingLevel: ceiling,
	})
	metrics.ObserveStage(stageRetrieve, stageStart)
	if err != nil {
		return nil, 0, fmt.Errorf("retrieve candidates: %w", err)
	}
	if len(candidates) == 0 {
		log.Debug().Msg("No candidates after filtering")
		return empty, 0, nil
	}

	stageStart = time.Now()
	scored := e.deps.Scorer.Score(candidates, history, settings)
	metrics.ObserveStage(stageScore, stageStart)

	stageStart = time.Now()
	ranked, err := e.deps.Booster.Apply(ctx, BoostRequest{
		UserID:       user.ID,
		MediaKind:    req.kind,
		ModelID:      modelID,
		InterestTopK: settings.InterestTopK,
		Penalized:    penalized,
	}, scored)
	metrics.ObserveStage(stageBoost, stageStart)
	if err != nil {
		return nil, len(candidates), fmt.Errorf("apply preference boosts: %w", err)
	}

	if e.cancelled(ctx) {
		log.Info().Msg("Job cancelled before selection")
		return empty, len(candidates), nil
	}

	stageStart = time.Now()
	selected := e.deps.Selector.Select(ranked, settings.SelectedCount, settings.DiversityWeight, settings.NetworkDiversity)
	metrics.ObserveStage(stageSelect, stageStart)

	stageStart = time.Now()
	evidence := e.buildEvidence(ctx, run.ID, modelID, selected, recent)
	metrics.ObserveStage(stageEvidence, stageStart)

	stageStart = time.Now()
	records := mergeSelection(run.ID, ranked, selected)
	if err := e.deps.Runs.SaveCandidates(ctx, run.ID, records, evidence); err != nil {
		return nil, len(candidates), fmt.Errorf("save candidates: %w", err)
	}
	metrics.ObserveStage(stagePersist, stageStart)

	log.Debug().
		Int("candidates", len(candidates)).
		Int("selected", len(selected)).
		Int("evidence", len(evidence)).
		Msg("Pipeline stages finished")

	return selected, len(candidates), nil
}

// exclusions returns the ids kept out of retrieval and the ids to penalize.
func (e *Engine) exclusions(ctx context.Context, userID int, kind MediaKind, history []WatchedItem) (exclude, penalized map[int]struct{}, err error) {
	prefs, err := e.deps.Catalog.GetUserPreferences(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load user preferences: %w", err)
	}

	exclude = make(map[int]struct{})
	penalized = make(map[int]struct{})
	if !prefs.IncludeWatched {
		for i := range history {
			exclude[history[i].ItemID] = struct{}{}
		}
	}

	if prefs.DislikeBehavior == DislikeIgnore {
		return exclude, penalized, nil
	}
	disliked, err := e.deps.Catalog.GetDislikedItems(ctx, userID, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("load disliked items: %w", err)
	}
	for _, id := range disliked {
		if prefs.DislikeBehavior == DislikePenalize {
			penalized[id] = struct{}{}
		} else {
			exclude[id] = struct{}{}
		}
	}
	return exclude, penalized, nil
}

// cancelled reports whether the job driving this run was cancelled or the
// context is done.
func (e *Engine) cancelled(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	jobID := logging.JobIDFromContext(ctx)
	if jobID == "" || e.deps.Jobs == nil {
		return false
	}
	return e.deps.Jobs.IsCancelled(ctx, jobID)
}

// mergeSelection copies selection results onto the full ranked population.
//
//nolint:gocritic // rangeValCopy: records are built by value
func mergeSelection(runID string, ranked, selected []ScoredCandidate) []CandidateRecord {
	picked := make(map[int]ScoredCandidate, len(selected))
	for _, s := range selected {
		picked[s.ItemID] = s
	}

	records := make([]CandidateRecord, len(ranked))
	for i, c := range ranked {
		if s, ok := picked[c.ItemID]; ok {
			c = s
		} else {
			c.FinalScore = c.FinalBase
		}
		records[i] = CandidateRecord{RunID: runID, Scored: c}
	}
	return records
}

// LatestResult is the most recent completed run of a user and its selections.
type LatestResult struct {
	Run   *Run              `json:"run"`
	Items []CandidateRecord `json:"items"`
}
