package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/contracts"
)

// KafkaPublisher writes canonical envelopes to Kafka. Domain and analytics
// events share a writer; the topic is the envelope's event type unless a
// mapping overrides it.
type KafkaPublisher struct {
	writer       *kafka.Writer
	topicByEvent map[string]string
	dlqTopic     string
}

func NewKafkaPublisher(brokers []string, topicByEvent map[string]string, dlqTopic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if dlqTopic == "" {
		dlqTopic = "tracking-attribution-service.dlq"
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topicByEvent: topicByEvent,
		dlqTopic:     dlqTopic,
	}, nil
}

func (p *KafkaPublisher) PublishDomain(ctx context.Context, envelope contracts.EventEnvelope) error {
	return p.publish(ctx, envelope)
}

func (p *KafkaPublisher) PublishAnalytics(ctx context.Context, envelope contracts.EventEnvelope) error {
	return p.publish(ctx, envelope)
}

func (p *KafkaPublisher) PublishDLQ(ctx context.Context, record contracts.DLQRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.dlqTopic,
		Key:   []byte(record.OriginalEvent.PartitionKey),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, envelope contracts.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	topic := envelope.EventType
	if mapped, ok := p.topicByEvent[envelope.EventType]; ok && mapped != "" {
		topic = mapped
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(envelope.PartitionKey),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
