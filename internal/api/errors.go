// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/curator/internal/jobs"
	"github.com/tomtom215/curator/internal/recommend"
)

// errorStatus maps domain errors to an HTTP status and error code.
func errorStatus(err error) (status int, code string) {
	switch {
	case errors.Is(err, recommend.ErrInvalidMediaKind):
		return http.StatusBadRequest, "INVALID_MEDIA_KIND"
	case errors.Is(err, recommend.ErrInvalidSettings):
		return http.StatusBadRequest, "INVALID_SETTINGS"
	case errors.Is(err, recommend.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND"
	case errors.Is(err, recommend.ErrRunInProgress):
		return http.StatusConflict, "RUN_IN_PROGRESS"
	case errors.Is(err, jobs.ErrJobNotFound):
		return http.StatusNotFound, "JOB_NOT_FOUND"
	case errors.Is(err, jobs.ErrJobFinished):
		return http.StatusConflict, "JOB_FINISHED"
	case errors.Is(err, jobs.ErrJobPending):
		return http.StatusConflict, "BATCH_PENDING"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// respondDomainError writes err using errorStatus. Client errors echo the
// error text; server errors use a generic message.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "Internal server error"
	}
	respondError(w, r, status, code, message, err)
}
