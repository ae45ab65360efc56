package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "clubreg/pkg/platform/audit"
)

// Kafka publishes lifecycle events to a topic. Delivery is asynchronous and
// best-effort: produce errors are logged, never returned, so a broker outage
// cannot stall a user-facing transition.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafka(brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

func (p *Kafka) Emit(ctx context.Context, event audit.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.RegistrationID.String()),
		Value: raw,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && p.logger != nil {
			p.logger.Warn("lifecycle event publish failed",
				"action", event.Action,
				"registration_id", event.RegistrationID,
				"error", err,
			)
		}
	})
	return nil
}

func (p *Kafka) Close() {
	p.client.Close()
}
