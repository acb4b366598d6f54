package alerts

import (
	"context"

	"ScamDunk/internal/domain/repository"
	"ScamDunk/pkg/kafka"
)

// KafkaSink publishes outage alerts to an event-bus topic, keyed by API name
// so per-upstream ordering is preserved.
type KafkaSink struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaSink(producer *kafka.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Send(ctx context.Context, alert repository.OutageAlert) error {
	return s.producer.Publish(ctx, s.topic, []byte(alert.APIName), alert)
}
