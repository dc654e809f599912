// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package recommend

import "errors"

var (
	// ErrRunInProgress is returned when a run for the same user and media kind is active.
	ErrRunInProgress = errors.New("recommendation run already in progress")

	// ErrNoEmbeddingModel is returned when no embedding model is marked active.
	ErrNoEmbeddingModel = errors.New("no active embedding model")

	// ErrInvalidMediaKind is returned for media kinds other than movie and series.
	ErrInvalidMediaKind = errors.New("invalid media kind")

	// ErrInvalidSettings is returned when merged settings fail validation.
	ErrInvalidSettings = errors.New("invalid recommendation settings")

	// ErrUserNotFound is returned when the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)
