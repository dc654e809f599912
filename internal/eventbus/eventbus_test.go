// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/curator/internal/metrics"
	"github.com/tomtom215/curator/internal/recommend"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := bus.SubscribeRunCompleted(ctx)
	if err != nil {
		t.Fatalf("SubscribeRunCompleted() error = %v", err)
	}

	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicRunCompleted))

	want := recommend.RunCompletedEvent{
		RunID:       "run-1",
		UserID:      7,
		MediaKind:   recommend.MediaSeries,
		Selected:    10,
		CompletedAt: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	if err := bus.PublishRunCompleted(ctx, want); err != nil {
		t.Fatalf("PublishRunCompleted() error = %v", err)
	}

	var msg *message.Message
	select {
	case msg = <-messages:
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
	defer msg.Ack()

	got, err := DecodeRunCompleted(msg)
	if err != nil {
		t.Fatalf("DecodeRunCompleted() error = %v", err)
	}
	if got.RunID != want.RunID || got.UserID != 7 || got.Selected != 10 || !got.CompletedAt.Equal(want.CompletedAt) {
		t.Errorf("event = %+v, want %+v", got, want)
	}
	if msg.Metadata.Get("run_id") != "run-1" {
		t.Errorf("run_id metadata = %q", msg.Metadata.Get("run_id"))
	}

	after := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicRunCompleted))
	if after-before != 1 {
		t.Errorf("events published delta = %v, want 1", after-before)
	}
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := New()
	t.Cleanup(func() { _ = bus.Close() })

	if err := bus.PublishRunCompleted(context.Background(), recommend.RunCompletedEvent{RunID: "x"}); err != nil {
		t.Errorf("PublishRunCompleted() error = %v", err)
	}
}

func TestDecodeRunCompleted_Invalid(t *testing.T) {
	msg := message.NewMessage("1", []byte("{not json"))
	if _, err := DecodeRunCompleted(msg); err == nil {
		t.Error("DecodeRunCompleted() error = nil")
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := New()
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
	if err := bus.PublishRunCompleted(context.Background(), recommend.RunCompletedEvent{RunID: "x"}); err == nil {
		t.Error("PublishRunCompleted() after Close error = nil")
	}
}
