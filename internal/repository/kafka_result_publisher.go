package repository

import (
	"context"

	"FlowSentry/internal/domain/models"
	domrepo "FlowSentry/internal/domain/repository"
	pkgkafka "FlowSentry/pkg/kafka"
)

// KafkaResultPublisher publishes confirmed results to the alerting topic,
// keyed by symbol so one symbol's results stay ordered within a partition.
type KafkaResultPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaResultPublisher(producer *pkgkafka.Producer, topic string) domrepo.ResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) Publish(ctx context.Context, r *models.ConfirmationResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Symbol), r)
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
