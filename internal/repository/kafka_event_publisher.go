package repository

import (
	"context"

	"SumReport/internal/domain/models"
	pkgkafka "SumReport/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher for Kafka.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// PublishTableEvent keys the message by batch so one refresh lands on one partition.
func (p *KafkaEventPublisher) PublishTableEvent(ctx context.Context, ev models.TableEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.BatchID), ev)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
