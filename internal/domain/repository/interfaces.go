package repository

import (
	"context"

	"FlowSentry/internal/domain/models"
)

// ResultPublisher forwards confirmed results to the alerting consumer's topic.
type ResultPublisher interface {
	Publish(ctx context.Context, r *models.ConfirmationResult) error
	Close() error
}

// ResultStore retains the last good result per symbol so a timed-out or
// cancelled evaluation can be answered with a stale-flagged previous result.
type ResultStore interface {
	Put(ctx context.Context, r *models.ConfirmationResult) error
	Get(ctx context.Context, symbol string) (*models.ConfirmationResult, bool, error)
	MarkStale(ctx context.Context, symbol string) error
}

// AlertSink receives actionable signals for the external alerting collaborator.
type AlertSink interface {
	Enqueue(ctx context.Context, r *models.ConfirmationResult) error
}

// Metrics abstracts operational instrumentation.
type Metrics interface {
	RecordEvaluation(symbol string, signal string)
	RecordError(kind string)
	RecordLastScore(symbol string, score float64)
	RecordLatency(op string, seconds float64)
}
