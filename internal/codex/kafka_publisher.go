package codex

import (
	"context"

	"ForceField/internal/domain/models"
	"ForceField/internal/domain/repository"
	pkgkafka "ForceField/pkg/kafka"
)

// KafkaPublisher fans interpretation batches out to downstream consumers
// (dashboards, alerting). Messages are keyed by tipo so each consumer
// partition sees a stable ordering per force type.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a publisher over an established producer.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishInterpretations(ctx context.Context, batch []models.Interpretation) error {
	if len(batch) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(batch))
	for i, in := range batch {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(in.Type),
			Value: in,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
