package alertqueue

import (
	"context"
	"fmt"

	"FlowSentry/internal/domain/models"
	domrepo "FlowSentry/internal/domain/repository"
	"FlowSentry/pkg/queue"
)

const alertType = "detection.alert"

// Sink pushes actionable results onto the Redis queue the external alerting
// consumer drains. A nil queue disables the sink.
type Sink struct {
	q queue.QueueService
}

func New(q queue.QueueService) *Sink {
	return &Sink{q: q}
}

func (s *Sink) Enqueue(ctx context.Context, r *models.ConfirmationResult) error {
	if s.q == nil {
		return nil
	}
	if r == nil || r.Detection == nil {
		return fmt.Errorf("alert sink: incomplete result")
	}
	if err := s.q.PublishMessage(ctx, alertType, r); err != nil {
		return fmt.Errorf("alert sink %s: %w", r.Symbol, err)
	}
	return nil
}

var _ domrepo.AlertSink = (*Sink)(nil)
