// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	runKey       contextKey = "run"
	jobIDKey     contextKey = "job_id"
	loggerKey    contextKey = "logger"
)

// runFields are the identifiers attached to every line of a recommendation run.
type runFields struct {
	RunID     string
	UserID    int
	MediaKind string
}

// GenerateRequestID creates a new unique request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithRequestID returns a new context with the given HTTP request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext retrieves the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRun attaches recommendation run identifiers to the context.
//
//	ctx = logging.ContextWithRun(ctx, run.ID, run.UserID, string(run.MediaKind))
func ContextWithRun(ctx context.Context, runID string, userID int, mediaKind string) context.Context {
	return context.WithValue(ctx, runKey, runFields{RunID: runID, UserID: userID, MediaKind: mediaKind})
}

// ContextWithJobID attaches a background job ID to the context.
func ContextWithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey, jobID)
}

// JobIDFromContext retrieves the job ID from context.
func JobIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(jobIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithLogger stores a logger in the context.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext retrieves a logger from context.
// Returns the global logger if no logger is stored in context.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return Logger()
}

// Ctx returns a logger with request, job and run fields from the context added.
//
//	logging.Ctx(ctx).Info().Msg("Run completed")
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := LoggerFromContext(ctx).With()

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		logCtx = logCtx.Str("request_id", requestID)
	}
	if jobID := JobIDFromContext(ctx); jobID != "" {
		logCtx = logCtx.Str("job_id", jobID)
	}
	if run, ok := ctx.Value(runKey).(runFields); ok {
		logCtx = logCtx.
			Str("run_id", run.RunID).
			Int("user_id", run.UserID).
			Str("media_kind", run.MediaKind)
	}

	l := logCtx.Logger()
	return &l
}
