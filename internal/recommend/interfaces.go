// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package recommend

import (
	"context"
	"time"
)

// Note: this package depends on no storage or transport package. The
// interfaces below are implemented by internal/database, internal/embedding,
// internal/jobs and internal/eventbus and wired together in cmd/server.

// EmbeddingProvider supplies item vectors and text embeddings.
type EmbeddingProvider interface {
	// ActiveModelID returns the active model identifier or ErrNoEmbeddingModel.
	ActiveModelID(ctx context.Context) (string, error)

	// GetVectors returns vectors for the given items. Items without a vector are absent.
	GetVectors(ctx context.Context, itemIDs []int, modelID string) (map[int][]float32, error)

	// TextEmbedding embeds free text such as a custom interest description.
	TextEmbedding(ctx context.Context, text string) ([]float32, error)
}

// NeighborQuery parameterizes a nearest neighbour search over item embeddings.
type NeighborQuery struct {
	MediaKind MediaKind
	ModelID   string
	Vector    []float32
	Limit     int

	// MaxRatingLevel is the parental ceiling; nil means no ceiling.
	MaxRatingLevel *int
}

// CatalogStore reads users, catalog items and watch history.
type CatalogStore interface {
	ListEligibleUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, userID int) (*User, error)
	GetWatchHistory(ctx context.Context, userID int, kind MediaKind, limit int) ([]WatchedItem, error)
	GetUserPreferences(ctx context.Context, userID int) (UserPreferences, error)
	GetDislikedItems(ctx context.Context, userID int, kind MediaKind) ([]int, error)
	GetCustomInterests(ctx context.Context, userID int) ([]string, error)
	ListCatalogTitles(ctx context.Context, kind MediaKind) ([]CatalogTitle, error)
	NearestNeighbors(ctx context.Context, q NeighborQuery) ([]Candidate, error)
}

// ProfileStore persists taste profiles. SaveProfile writes both the current
// and the legacy copy.
type ProfileStore interface {
	LoadProfile(ctx context.Context, userID int, kind MediaKind, modelID string) (*TasteProfile, error)
	SaveProfile(ctx context.Context, p *TasteProfile) error
}

// PreferenceStore persists detected franchise preferences and genre weights.
type PreferenceStore interface {
	ReplaceFranchisePreferences(ctx context.Context, userID int, kind MediaKind, prefs []FranchisePreference) error
	GetFranchisePreferences(ctx context.Context, userID int, kind MediaKind) ([]FranchisePreference, error)
	ReplaceGenreWeights(ctx context.Context, userID int, kind MediaKind, weights []GenreWeight) error
	GetGenreWeights(ctx context.Context, userID int, kind MediaKind) ([]GenreWeight, error)
}

// RunStore persists runs, candidate records and evidence.
type RunStore interface {
	CreateRun(ctx context.Context, run *Run) error
	FinalizeRun(ctx context.Context, run *Run) error
	SaveCandidates(ctx context.Context, runID string, records []CandidateRecord, evidence []Evidence) error

	// DeleteUserResults removes runs for a user whatever their status,
	// except the runs named in keep. An empty kind removes every kind.
	DeleteUserResults(ctx context.Context, userID int, kind MediaKind, keep []string) error
	DeleteAllResults(ctx context.Context, keep []string) error

	LatestRun(ctx context.Context, userID int, kind MediaKind) (*Run, error)
	ListCandidates(ctx context.Context, runID string, selectedOnly bool) ([]CandidateRecord, error)
	ListEvidence(ctx context.Context, runID string) ([]Evidence, error)
	SaveExplanations(ctx context.Context, runID string, explanations map[int]string) error
}

// SettingsProvider resolves the effective settings of a run.
type SettingsProvider interface {
	Resolve(ctx context.Context, userID int, kind MediaKind, request *SettingsOverride) (Settings, error)
}

// JobTracker receives progress for long running work. Tracking is best
// effort, so implementations log their own failures.
type JobTracker interface {
	ReportStep(ctx context.Context, jobID string, step, total int, label string)
	ReportProgress(ctx context.Context, jobID string, done, total int, message string)
	IsCancelled(ctx context.Context, jobID string) bool
	Complete(ctx context.Context, jobID string, summary map[string]interface{})
	Fail(ctx context.Context, jobID string, err error)
}

// RunCompletedEvent is published after a run reaches the completed state with selections.
type RunCompletedEvent struct {
	RunID       string    `json:"run_id"`
	UserID      int       `json:"user_id"`
	MediaKind   MediaKind `json:"media_kind"`
	Selected    int       `json:"selected"`
	CompletedAt time.Time `json:"completed_at"`
}

// RunPublisher hands completed runs to asynchronous consumers.
type RunPublisher interface {
	PublishRunCompleted(ctx context.Context, event RunCompletedEvent) error
}

// ExplanationGenerator produces human readable text for selected items.
type ExplanationGenerator interface {
	Explain(ctx context.Context, user *User, items []CandidateRecord, evidence []Evidence) (map[int]string, error)
}

// ProfileRequest asks for a user's taste profile.
type ProfileRequest struct {
	UserID    int
	MediaKind MediaKind
	ModelID   string
	History   []WatchedItem
	MaxAge    time.Duration

	// Force skips any stored profile.
	Force bool
}

// ProfileBuilder builds or loads taste profiles. fresh reports a rebuild.
type ProfileBuilder interface {
	Build(ctx context.Context, req ProfileRequest) (profile *TasteProfile, fresh bool, err error)
}

// PreferenceDetector re-derives franchise preferences and genre weights from history.
type PreferenceDetector interface {
	Detect(ctx context.Context, userID int, kind MediaKind, history []WatchedItem) error
}

// RetrievalRequest asks for the K nearest candidates to a profile.
type RetrievalRequest struct {
	MediaKind      MediaKind
	ModelID        string
	Vector         []float32
	Limit          int
	Exclude        map[int]struct{}
	MaxRatingLevel *int
}

// CandidateRetriever returns at most Limit candidates, nearest first.
type CandidateRetriever interface {
	Retrieve(ctx context.Context, req RetrievalRequest) ([]Candidate, error)
}

// Scorer computes similarity, novelty and rating sub-scores and the weighted base score.
type Scorer interface {
	Score(candidates []Candidate, history []WatchedItem, settings Settings) []ScoredCandidate
}

// BoostRequest carries the per-run inputs of the preference boost stage.
type BoostRequest struct {
	UserID       int
	MediaKind    MediaKind
	ModelID      string
	InterestTopK int

	// Penalized items get their final base halved.
	Penalized map[int]struct{}
}

// Booster applies franchise, genre and interest boosts and returns candidates
// ranked by final base score.
type Booster interface {
	Apply(ctx context.Context, req BoostRequest, scored []ScoredCandidate) ([]ScoredCandidate, error)
}

// Selector picks the final recommendations from ranked candidates.
type Selector interface {
	Select(ranked []ScoredCandidate, n int, diversityWeight float64, networkDiversity bool) []ScoredCandidate
}
