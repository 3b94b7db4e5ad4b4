// Package kafka publishes assembled fire records to a Kafka topic for
// downstream consumers (precomputed dashboards, alerting). Publishing is
// optional; the export run is complete without it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fire-perimeter-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces fire records to a Kafka topic.
// It implements pipeline.RecordPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured records topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishRecords serializes and publishes the full batch of fire records in a
// single WriteMessages call for efficiency.
func (p *Publisher) PublishRecords(ctx context.Context, records []domain.FireRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish fire records: %w", err)
	}
	p.logger.Info("published fire records", "topic", p.writer.Topic, "count", len(records))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a FireRecord into a Kafka message keyed by fire id.
func serializeToMessage(record domain.FireRecord) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize fire record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(record.FireID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "fire_name", Value: []byte(record.Name)},
			{Key: "assembled_at", Value: []byte(record.AssembledAt.Format(time.RFC3339))},
		},
	}, nil
}
