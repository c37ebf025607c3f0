package event

import (
	"context"
	"encoding/json"
	"fmt"

	checkout "github.com/edge-gallery/storefront/internal/domain/checkout"
	domoutbox "github.com/edge-gallery/storefront/internal/domain/outbox"
	"github.com/edge-gallery/storefront/internal/observability"
	kafka "github.com/segmentio/kafka-go"
)

// KafkaForwarder relays fulfillment events onto a Kafka topic for downstream
// consumers. It subscribes to the in-memory bus like any
// other handler, so a broker outage never blocks checkout.
type KafkaForwarder struct {
	writer *kafka.Writer
	log    observability.Logger
}

func NewKafkaForwarder(brokers []string, topic string, logger observability.Logger) *KafkaForwarder {
	return &KafkaForwarder{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		log: logger.With(observability.F("component", "kafka_forwarder")),
	}
}

// Handle marshals the event and writes it keyed by session id so replays of
// the same session land on the same partition.
func (f *KafkaForwarder) Handle(ctx context.Context, e domoutbox.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka forwarder: marshal %s: %w", e.EventName(), err)
	}

	var key []byte
	if fe, ok := e.(checkout.FulfilledEvent); ok {
		key = []byte(fe.SessionID)
	}

	if err := f.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: payload}); err != nil {
		return fmt.Errorf("kafka forwarder: write %s: %w", e.EventName(), err)
	}

	f.log.Debug("event_forwarded",
		observability.F("event", e.EventName()),
		observability.F("bytes", len(payload)),
	)
	return nil
}

func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}
