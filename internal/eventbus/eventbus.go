// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

// Package eventbus carries run lifecycle events between the recommendation
// engine and its asynchronous consumers over an in-process Watermill
// Go channel pub/sub.
package eventbus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/curator/internal/logging"
	"github.com/tomtom215/curator/internal/metrics"
	"github.com/tomtom215/curator/internal/recommend"
)

// TopicRunCompleted receives a message per completed run with selections.
const TopicRunCompleted = "recommendations.run_completed"

// Bus is an in-process publisher and subscriber.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// New creates a Bus. Messages published while nobody is subscribed are dropped.
func New() *Bus {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, logger),
	}
}

// PublishRunCompleted publishes a run completion event.
//
//nolint:gocritic // event is passed by value as an immutable message
func (b *Bus) PublishRunCompleted(ctx context.Context, event recommend.RunCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode run completed event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("run_id", event.RunID)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set("request_id", id)
	}

	if err := b.pubsub.Publish(TopicRunCompleted, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TopicRunCompleted, err)
	}
	metrics.EventsPublished.WithLabelValues(TopicRunCompleted).Inc()
	return nil
}

// SubscribeRunCompleted returns a channel of run completion messages. The
// channel closes when ctx is done or the bus is closed. Each message must be
// acked or nacked.
func (b *Bus) SubscribeRunCompleted(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, TopicRunCompleted)
}

// Close closes the pub/sub and every subscription.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// DecodeRunCompleted parses a run completion message.
func DecodeRunCompleted(msg *message.Message) (recommend.RunCompletedEvent, error) {
	var event recommend.RunCompletedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return event, fmt.Errorf("decode run completed event %s: %w", msg.UUID, err)
	}
	return event, nil
}

var _ recommend.RunPublisher = (*Bus)(nil)
