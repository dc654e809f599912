// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package recommend

import (
	"fmt"
	"strings"
	"time"
)

// MediaKind distinguishes the two catalog partitions recommendations are generated for.
type MediaKind string

const (
	// MediaMovie is a standalone film.
	MediaMovie MediaKind = "movie"
	// MediaSeries is an episodic show; engagement is counted in episodes.
	MediaSeries MediaKind = "series"
)

// AllMediaKinds lists every supported media kind in processing order.
var AllMediaKinds = []MediaKind{MediaMovie, MediaSeries}

// ParseMediaKind converts a string to a MediaKind.
func ParseMediaKind(s string) (MediaKind, error) {
	switch MediaKind(strings.ToLower(strings.TrimSpace(s))) {
	case MediaMovie:
		return MediaMovie, nil
	case MediaSeries:
		return MediaSeries, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMediaKind, s)
	}
}

// User is a library account recommendations are generated for.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Enabled  bool   `json:"enabled"`

	// MaxContentRating is the parental ceiling ("PG-13", "TV-14"); empty means none.
	MaxContentRating string `json:"max_content_rating,omitempty"`
}

// DislikeBehavior controls how explicitly disliked items are treated.
type DislikeBehavior string

const (
	// DislikeExclude removes disliked items from retrieval.
	DislikeExclude DislikeBehavior = "exclude"
	// DislikePenalize keeps disliked items but halves their final base score.
	DislikePenalize DislikeBehavior = "penalize"
	// DislikeIgnore treats disliked items like any other item.
	DislikeIgnore DislikeBehavior = "ignore"
)

// UserPreferences are per-user switches that shape the exclusion set.
type UserPreferences struct {
	IncludeWatched  bool            `json:"include_watched"`
	DislikeBehavior DislikeBehavior `json:"dislike_behavior"`
}

// DefaultUserPreferences returns the preferences used when a user has none stored.
func DefaultUserPreferences() UserPreferences {
	return UserPreferences{IncludeWatched: false, DislikeBehavior: DislikeExclude}
}

// WatchedItem is one entry of a user's watch history with the catalog
// metadata the pipeline needs to profile it.
type WatchedItem struct {
	ItemID     int       `json:"item_id"`
	Title      string    `json:"title"`
	Genres     []string  `json:"genres"`
	Collection string    `json:"collection,omitempty"`
	LastPlayed time.Time `json:"last_played"`

	// UnitsCompleted is plays for a movie, distinct episodes for a series.
	UnitsCompleted int `json:"units_completed"`

	// TotalUnits is 1 for a movie, the episode count for a series, 0 when unknown.
	TotalUnits int `json:"total_units"`

	IsFavorite bool `json:"is_favorite"`

	// UserRating is the user's own 0-10 rating, nil when unrated.
	UserRating *float64 `json:"user_rating,omitempty"`
}

// TasteProfile is the engagement-weighted mean of a user's watched item embeddings.
type TasteProfile struct {
	UserID    int       `json:"user_id"`
	MediaKind MediaKind `json:"media_kind"`
	ModelID   string    `json:"model_id"`
	Vector    []float32 `json:"vector"`
	ItemCount int       `json:"item_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Candidate is a catalog item retrieved as a nearest neighbour of a taste profile.
type Candidate struct {
	ItemID     int      `json:"item_id"`
	Title      string   `json:"title"`
	Year       int      `json:"year,omitempty"`
	Genres     []string `json:"genres"`
	Collection string   `json:"collection,omitempty"`

	// Source is the network for a series or the studio for a movie.
	Source string `json:"source,omitempty"`

	// CommunityRating is the 0-10 public rating, nil when unknown.
	CommunityRating *float64 `json:"community_rating,omitempty"`
	ContentRating   string   `json:"content_rating,omitempty"`

	// Similarity is the cosine similarity to the profile mapped into [0, 1].
	Similarity float64 `json:"similarity"`
}

// ScoredCandidate carries every intermediate score of a candidate through
// scoring, boosting and selection.
type ScoredCandidate struct {
	Candidate

	NoveltyScore float64 `json:"novelty_score"`
	RatingScore  float64 `json:"rating_score"`
	BaseScore    float64 `json:"base_score"`

	FranchiseBoost float64 `json:"franchise_boost"`
	GenreBoost     float64 `json:"genre_boost"`
	InterestBoost  float64 `json:"interest_boost"`

	// Franchise, BoostGenre and MatchedInterest record what drove each boost.
	Franchise       string `json:"franchise,omitempty"`
	BoostGenre      string `json:"boost_genre,omitempty"`
	MatchedInterest string `json:"matched_interest,omitempty"`

	// FinalBase is BaseScore times the boost multiplier.
	FinalBase float64 `json:"final_base"`

	// Rank is the 1-based position in the full candidate population by FinalBase.
	Rank int `json:"rank"`

	// DiversityScore and FinalScore are set by selection for selected items.
	DiversityScore float64 `json:"diversity_score"`
	FinalScore     float64 `json:"final_score"`
	Selected       bool    `json:"selected"`
	SelectedRank   int     `json:"selected_rank,omitempty"`
}

// BoostMultiplier returns the product of the three preference boosts.
func (s *ScoredCandidate) BoostMultiplier() float64 {
	return s.FranchiseBoost * s.GenreBoost * s.InterestBoost
}

// RunStatus is the lifecycle state of a recommendation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s RunStatus) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed
}

// Run is the persisted record of one pipeline execution for a user and media kind.
type Run struct {
	ID             string     `json:"id"`
	UserID         int        `json:"user_id"`
	MediaKind      MediaKind  `json:"media_kind"`
	JobID          string     `json:"job_id,omitempty"`
	Status         RunStatus  `json:"status"`
	ModelID        string     `json:"model_id,omitempty"`
	CandidateCount int        `json:"candidate_count"`
	SelectedCount  int        `json:"selected_count"`
	DurationMS     int64      `json:"duration_ms"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	// ProfileRebuilt reports whether the run built a new taste profile.
	ProfileRebuilt bool `json:"profile_rebuilt"`
}

// EvidenceKind names what a piece of evidence supports.
type EvidenceKind string

const (
	EvidenceSimilarWatch EvidenceKind = "similar_watch"
	EvidenceFranchise    EvidenceKind = "franchise"
	EvidenceGenre        EvidenceKind = "genre"
	EvidenceInterest     EvidenceKind = "interest"
)

// Evidence links a selected recommendation to the signal that supports it.
type Evidence struct {
	RunID     string       `json:"run_id"`
	ItemID    int          `json:"item_id"`
	Kind      EvidenceKind `json:"kind"`
	Reference string       `json:"reference"`
	Weight    float64      `json:"weight"`
}

// CandidateRecord is a persisted ScoredCandidate belonging to a run.
type CandidateRecord struct {
	RunID       string          `json:"run_id"`
	Scored      ScoredCandidate `json:"scored"`
	Explanation string          `json:"explanation,omitempty"`
}

// FranchisePreference is a user's detected affinity for one franchise.
type FranchisePreference struct {
	Franchise      string  `json:"franchise"`
	ItemsWatched   int     `json:"items_watched"`
	ItemsInCatalog int     `json:"items_in_catalog"`
	Engagement     int     `json:"engagement"`
	Preference     float64 `json:"preference"` // [-1, 1]
}

// GenreWeight is a user's detected affinity for one genre, in [0, 2].
type GenreWeight struct {
	Genre  string  `json:"genre"`
	Weight float64 `json:"weight"`
}

// CatalogTitle is the minimal catalog row used to size franchises.
type CatalogTitle struct {
	ItemID     int    `json:"item_id"`
	Title      string `json:"title"`
	Collection string `json:"collection,omitempty"`
}

// GenerateResult is returned by a single user run.
type GenerateResult struct {
	RunID           string            `json:"run_id"`
	Status          RunStatus         `json:"status"`
	Recommendations []ScoredCandidate `json:"recommendations"`
}

// RegenerateResult is returned by a destructive regeneration.
type RegenerateResult struct {
	RunID string `json:"run_id"`
	Count int    `json:"count"`
}

// BatchResult summarizes a batch run across all eligible users.
type BatchResult struct {
	JobID                string `json:"job_id,omitempty"`
	Success              int    `json:"success"`
	Failed               int    `json:"failed"`
	TotalRecommendations int    `json:"total_recommendations"`
	Cancelled            bool   `json:"cancelled"`
}
