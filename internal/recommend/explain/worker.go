// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package explain

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/curator/internal/eventbus"
	"github.com/tomtom215/curator/internal/logging"
	"github.com/tomtom215/curator/internal/metrics"
	"github.com/tomtom215/curator/internal/recommend"
)

// Subscriber delivers run completion messages. *eventbus.Bus implements it.
type Subscriber interface {
	SubscribeRunCompleted(ctx context.Context) (<-chan *message.Message, error)
}

// RunReader is the part of the run store the worker needs.
type RunReader interface {
	ListCandidates(ctx context.Context, runID string, selectedOnly bool) ([]recommend.CandidateRecord, error)
	ListEvidence(ctx context.Context, runID string) ([]recommend.Evidence, error)
	SaveExplanations(ctx context.Context, runID string, explanations map[int]string) error
}

// UserReader looks up the user a run belongs to.
type UserReader interface {
	GetUser(ctx context.Context, userID int) (*recommend.User, error)
}

// Worker annotates completed runs with explanations. Failures are logged and
// the message is acked; explanations are best effort.
type Worker struct {
	subscriber Subscriber
	runs       RunReader
	users      UserReader
	generator  recommend.ExplanationGenerator
	logger     zerolog.Logger
}

// NewWorker creates a Worker.
func NewWorker(subscriber Subscriber, runs RunReader, users UserReader, generator recommend.ExplanationGenerator) *Worker {
	return &Worker{
		subscriber: subscriber,
		runs:       runs,
		users:      users,
		generator:  generator,
		logger:     logging.With().Str("component", "explain-worker").Logger(),
	}
}

// Serve consumes messages until ctx is done. It implements suture.Service.
func (w *Worker) Serve(ctx context.Context) error {
	messages, err := w.subscriber.SubscribeRunCompleted(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", eventbus.TopicRunCompleted, err)
	}

	w.logger.Info().Msg("Explanation worker started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return ctx.Err()
			}
			w.handle(ctx, msg)
			msg.Ack()
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg *message.Message) {
	event, err := eventbus.DecodeRunCompleted(msg)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Dropping malformed run event")
		metrics.RecordExplanation(false)
		return
	}

	ctx = logging.ContextWithRun(ctx, event.RunID, event.UserID, string(event.MediaKind))
	if err := w.Process(ctx, event); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Explanation generation failed")
		metrics.RecordExplanation(false)
		return
	}
	metrics.RecordExplanation(true)
}

// Process generates and stores explanations for one completed run.
//
//nolint:gocritic // event is passed by value as an immutable message
func (w *Worker) Process(ctx context.Context, event recommend.RunCompletedEvent) error {
	records, err := w.runs.ListCandidates(ctx, event.RunID, true)
	if err != nil {
		return fmt.Errorf("load selected candidates: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	evidence, err := w.runs.ListEvidence(ctx, event.RunID)
	if err != nil {
		return fmt.Errorf("load evidence: %w", err)
	}

	user, err := w.users.GetUser(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	explanations, err := w.generator.Explain(ctx, user, records, evidence)
	if err != nil {
		return fmt.Errorf("generate explanations: %w", err)
	}
	if err := w.runs.SaveExplanations(ctx, event.RunID, explanations); err != nil {
		return fmt.Errorf("save explanations: %w", err)
	}

	logging.Ctx(ctx).Debug().Int("explained", len(explanations)).Msg("Explanations saved")
	return nil
}

// String names the service in supervisor logs.
func (w *Worker) String() string {
	return "explanation-worker"
}
