// Package kafka publishes persisted advisories to the advisory event topic
// for downstream consumers (the mobile app's feed service, analytics).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/krishisheba/advisory-service/internal/config"
	"github.com/krishisheba/advisory-service/internal/domain"
)

// Publisher produces advisory events to a Kafka topic.
// It implements alerts.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured advisory topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes one advisory and writes it to the topic. The advisory ID
// is the message key so per-advisory ordering is stable.
func (p *Publisher) Publish(ctx context.Context, a domain.Advisory) error {
	msg, err := serializeToMessage(a)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish advisory %s: %w", a.ID, err)
	}
	p.logger.Debug("advisory published",
		"advisory_id", a.ID,
		"severity", a.Severity)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an Advisory into a Kafka message.
func serializeToMessage(a domain.Advisory) (kafkago.Message, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize advisory: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(a.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "severity", Value: []byte(a.Severity)},
			{Key: "source", Value: []byte(a.Source)},
			{Key: "created_at", Value: []byte(a.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
