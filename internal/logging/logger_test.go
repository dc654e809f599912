// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(Config{})

	logger := WithComponent("scorer")
	logger.Debug().Int("candidates", 3).Msg("scored")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["component"] != "scorer" {
		t.Errorf("component = %v, want scorer", entry["component"])
	}
	if entry["message"] != "scored" {
		t.Errorf("message = %v, want scored", entry["message"])
	}
	if entry["candidates"] != float64(3) {
		t.Errorf("candidates = %v, want 3", entry["candidates"])
	}
}

func TestCtx_RunFields(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRun(ctx, "run-1", 7, "series")
	ctx = ContextWithJobID(ctx, "job-9")
	ctx = ContextWithRequestID(ctx, "req-3")

	Ctx(ctx).Info().Msg("stage done")

	out := buf.String()
	for _, want := range []string{`"run_id":"run-1"`, `"user_id":7`, `"media_kind":"series"`, `"job_id":"job-9"`, `"request_id":"req-3"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %s missing %s", out, want)
		}
	}
}

func TestCtx_NoFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))

	Ctx(ctx).Info().Msg("plain")

	if strings.Contains(buf.String(), "run_id") {
		t.Errorf("unexpected run_id in %s", buf.String())
	}
	if JobIDFromContext(ctx) != "" {
		t.Error("JobIDFromContext on empty context should be empty")
	}
}

func TestSlogHandler_ForwardsAttributes(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	slogger := slog.New(NewSlogHandler(NewTestLogger(&buf))).WithGroup("svc").With("name", "batch")
	slogger.Warn("restarting", "attempt", 2)

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"svc.name":"batch"`, `"svc.attempt":2`, `"message":"restarting"`} {
		if !strings.Contains(out, want) {
			t.Errorf("slog output %s missing %s", out, want)
		}
	}
}

func TestSlogHandler_LevelsAndNestedGroups(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	h := NewSlogHandler(NewTestLogger(&buf))
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled(debug) = true with the global level at info")
	}
	if !h.Enabled(context.Background(), slog.LevelError+2) {
		t.Error("Enabled(above error) = false")
	}

	slog.New(h).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug record written: %s", buf.String())
	}

	slog.New(h).Error("service failed",
		slog.Group("svc", slog.String("name", "explain"), slog.Group("backoff", slog.Int("n", 3))),
		slog.Any("err", errors.New("boom")),
	)
	out := buf.String()
	for _, want := range []string{`"level":"error"`, `"svc.name":"explain"`, `"svc.backoff.n":3`, `"err":"boom"`} {
		if !strings.Contains(out, want) {
			t.Errorf("slog output %s missing %s", out, want)
		}
	}
}

func TestInit_CallerAndLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warning", Caller: true, Output: &buf})
	defer Init(Config{})

	Info().Msg("dropped")
	Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info line written at warn level: %s", out)
	}
	if !strings.Contains(out, "kept") || !strings.Contains(out, `"caller":`) {
		t.Errorf("warn line = %s, want message with caller", out)
	}
}
