package events

import (
	"context"
	"fmt"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/kafka"
)

// Publisher sends domain events.
type Publisher interface {
	Publish(ctx context.Context, topic, key, eventType string, data interface{}) error
}

// KafkaPublisher wraps events in CloudEvents and writes them with a kafka.Producer.
type KafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key, eventType string, data interface{}) error {
	ce, err := kafka.NewCloudEvent(Source, eventType, data)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	return p.producer.PublishEvent(ctx, topic, key, ce)
}
