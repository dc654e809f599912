// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// field is a flattened slog attribute with its group path folded into the key.
type field struct {
	key   string
	value slog.Value
}

// SlogHandler is a slog.Handler that writes through zerolog. sutureslog only
// accepts *slog.Logger, so supervisor events reach the log this way.
type SlogHandler struct {
	logger zerolog.Logger
	prefix string
	fields []field
}

// NewSlogHandler wraps logger.
//
//nolint:gocritic // zerolog.Logger is passed by value throughout the package
func NewSlogHandler(logger zerolog.Logger) *SlogHandler {
	return &SlogHandler{logger: logger}
}

// NewSlogLogger returns an slog.Logger on the global logger, tagged as the supervisor.
func NewSlogLogger() *slog.Logger {
	return slog.New(NewSlogHandler(WithComponent("supervisor")))
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	lvl := zerologLevel(level)
	return lvl >= h.logger.GetLevel() && lvl >= zerolog.GlobalLevel()
}

//nolint:gocritic // slog.Handler fixes the signature
func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	event := h.logger.WithLevel(zerologLevel(record.Level))
	if event == nil {
		return nil
	}
	for _, f := range h.fields {
		event = appendField(event, f)
	}
	record.Attrs(func(a slog.Attr) bool {
		for _, f := range flatten(nil, h.prefix, a) {
			event = appendField(event, f)
		}
		return true
	})
	event.Msg(record.Message)
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, a := range attrs {
		next.fields = flatten(next.fields, h.prefix, a)
	}
	return &next
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// flatten appends a, expanding groups into dotted keys. Empty attributes are dropped.
func flatten(dst []field, prefix string, a slog.Attr) []field {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			dst = flatten(dst, inner, ga)
		}
		return dst
	}
	if a.Key == "" {
		return dst
	}
	return append(dst, field{key: prefix + a.Key, value: v})
}

func appendField(e *zerolog.Event, f field) *zerolog.Event {
	switch f.value.Kind() {
	case slog.KindString:
		return e.Str(f.key, f.value.String())
	case slog.KindInt64:
		return e.Int64(f.key, f.value.Int64())
	case slog.KindUint64:
		return e.Uint64(f.key, f.value.Uint64())
	case slog.KindFloat64:
		return e.Float64(f.key, f.value.Float64())
	case slog.KindBool:
		return e.Bool(f.key, f.value.Bool())
	case slog.KindDuration:
		return e.Dur(f.key, f.value.Duration())
	case slog.KindTime:
		return e.Time(f.key, f.value.Time())
	default:
		if err, ok := f.value.Any().(error); ok {
			return e.AnErr(f.key, err)
		}
		return e.Interface(f.key, f.value.Any())
	}
}

// zerologLevel maps slog levels, including custom ones in between, onto zerolog.
func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	case level >= slog.LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

var _ slog.Handler = (*SlogHandler)(nil)
