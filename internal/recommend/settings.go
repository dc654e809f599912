// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Settings is the fully resolved configuration of one run.
type Settings struct {
	// MaxCandidates is K, the number of candidates kept after retrieval.
	MaxCandidates int `json:"max_candidates" validate:"min=1,max=5000"`

	// SelectedCount is N, the number of items diversity selection returns.
	SelectedCount int `json:"selected_count" validate:"min=1,max=500"`

	SimilarityWeight float64 `json:"similarity_weight" validate:"gte=0,lte=1"`
	NoveltyWeight    float64 `json:"novelty_weight" validate:"gte=0,lte=1"`
	RatingWeight     float64 `json:"rating_weight" validate:"gte=0,lte=1"`
	DiversityWeight  float64 `json:"diversity_weight" validate:"gte=0,lte=1"`

	// RecentWatchLimit bounds how much history feeds the taste profile.
	RecentWatchLimit int `json:"recent_watch_limit" validate:"min=1,max=100000"`

	// InterestTopK is how many top candidates are checked against custom interests. 0 disables.
	InterestTopK int `json:"interest_top_k" validate:"min=0,max=5000"`

	// NetworkDiversity counts network/studio alongside genres during selection.
	NetworkDiversity bool `json:"network_diversity"`

	// ProfileMaxAge is how long a stored taste profile is reused. 0 always rebuilds.
	ProfileMaxAge time.Duration `json:"profile_max_age" validate:"gte=0"`
}

// SettingsOverride is a partial Settings. Nil fields leave the lower layer untouched.
type SettingsOverride struct {
	MaxCandidates    *int           `json:"max_candidates,omitempty"`
	SelectedCount    *int           `json:"selected_count,omitempty"`
	SimilarityWeight *float64       `json:"similarity_weight,omitempty"`
	NoveltyWeight    *float64       `json:"novelty_weight,omitempty"`
	RatingWeight     *float64       `json:"rating_weight,omitempty"`
	DiversityWeight  *float64       `json:"diversity_weight,omitempty"`
	RecentWatchLimit *int           `json:"recent_watch_limit,omitempty"`
	InterestTopK     *int           `json:"interest_top_k,omitempty"`
	NetworkDiversity *bool          `json:"network_diversity,omitempty"`
	ProfileMaxAge    *time.Duration `json:"profile_max_age,omitempty"`
}

var settingsValidator = validator.New(validator.WithRequiredStructEnabled())

// DefaultSettings returns the hardcoded fallback for a media kind.
func DefaultSettings(kind MediaKind) Settings {
	if kind == MediaSeries {
		return Settings{
			MaxCandidates:    150,
			SelectedCount:    10,
			SimilarityWeight: 0.55,
			NoveltyWeight:    0.20,
			RatingWeight:     0.25,
			DiversityWeight:  0.35,
			RecentWatchLimit: 50,
			InterestTopK:     50,
			NetworkDiversity: true,
			ProfileMaxAge:    24 * time.Hour,
		}
	}
	return Settings{
		MaxCandidates:    200,
		SelectedCount:    12,
		SimilarityWeight: 0.60,
		NoveltyWeight:    0.15,
		RatingWeight:     0.25,
		DiversityWeight:  0.30,
		RecentWatchLimit: 100,
		InterestTopK:     50,
		NetworkDiversity: false,
		ProfileMaxAge:    24 * time.Hour,
	}
}

// Apply returns a copy of s with every set field of o written over it.
func (s Settings) Apply(o *SettingsOverride) Settings {
	if o == nil {
		return s
	}
	if o.MaxCandidates != nil {
		s.MaxCandidates = *o.MaxCandidates
	}
	if o.SelectedCount != nil {
		s.SelectedCount = *o.SelectedCount
	}
	if o.SimilarityWeight != nil {
		s.SimilarityWeight = *o.SimilarityWeight
	}
	if o.NoveltyWeight != nil {
		s.NoveltyWeight = *o.NoveltyWeight
	}
	if o.RatingWeight != nil {
		s.RatingWeight = *o.RatingWeight
	}
	if o.DiversityWeight != nil {
		s.DiversityWeight = *o.DiversityWeight
	}
	if o.RecentWatchLimit != nil {
		s.RecentWatchLimit = *o.RecentWatchLimit
	}
	if o.InterestTopK != nil {
		s.InterestTopK = *o.InterestTopK
	}
	if o.NetworkDiversity != nil {
		s.NetworkDiversity = *o.NetworkDiversity
	}
	if o.ProfileMaxAge != nil {
		s.ProfileMaxAge = *o.ProfileMaxAge
	}
	return s
}

// Validate checks field ranges and that at least one scoring weight is positive.
func (s Settings) Validate() error {
	if err := settingsValidator.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if s.SimilarityWeight+s.NoveltyWeight+s.RatingWeight <= 0 {
		return fmt.Errorf("%w: similarity, novelty and rating weights are all zero", ErrInvalidSettings)
	}
	return nil
}

// MergeSettings resolves settings with precedence request > user > admin > fallback.
func MergeSettings(kind MediaKind, admin, user, request *SettingsOverride) (Settings, error) {
	s := DefaultSettings(kind).Apply(admin).Apply(user).Apply(request)
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// SettingsStore persists per-user overrides.
type SettingsStore interface {
	GetSettingsOverride(ctx context.Context, userID int, kind MediaKind) (*SettingsOverride, error)
	SaveSettingsOverride(ctx context.Context, userID int, kind MediaKind, o *SettingsOverride) error
}

// SettingsResolver merges administrator defaults with stored user overrides.
type SettingsResolver struct {
	admin map[MediaKind]*SettingsOverride
	store SettingsStore
}

// NewSettingsResolver creates a resolver. store may be nil when users cannot override.
func NewSettingsResolver(admin map[MediaKind]*SettingsOverride, store SettingsStore) *SettingsResolver {
	if admin == nil {
		admin = make(map[MediaKind]*SettingsOverride)
	}
	return &SettingsResolver{admin: admin, store: store}
}

// Resolve returns validated settings for a user and media kind.
// request holds per-call overrides and takes precedence over everything else.
func (r *SettingsResolver) Resolve(ctx context.Context, userID int, kind MediaKind, request *SettingsOverride) (Settings, error) {
	var user *SettingsOverride
	if r.store != nil {
		o, err := r.store.GetSettingsOverride(ctx, userID, kind)
		if err != nil {
			return Settings{}, fmt.Errorf("load user settings: %w", err)
		}
		user = o
	}
	return MergeSettings(kind, r.admin[kind], user, request)
}
