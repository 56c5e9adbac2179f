package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/renchester/blog-api/internal/models"
	"github.com/renchester/blog-api/internal/repository"
	"github.com/segmentio/kafka-go"
)

// Consumer copies auth events from Kafka into the audit repository.
type Consumer struct {
	reader    *kafka.Reader
	auditRepo repository.AuditRepository
}

func NewConsumer(brokers []string, topic, groupID string, auditRepo repository.AuditRepository) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
		auditRepo: auditRepo,
	}
}

// Consume blocks until ctx is cancelled. Malformed messages are logged and skipped.
func (c *Consumer) Consume(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				slog.Info("Kafka consumer stopped", "topic", c.reader.Config().Topic)
				return
			}
			slog.Error("failed to read Kafka message", "topic", c.reader.Config().Topic, "error", err)
			continue
		}

		if err := c.HandleMessage(ctx, msg.Value); err != nil {
			slog.Error("failed to handle auth event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			// TODO: Send to dead-letter queue
			continue
		}
	}
}

func (c *Consumer) HandleMessage(ctx context.Context, value []byte) error {
	var event models.AuthEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("unmarshal auth event: %w", err)
	}
	if !event.Type.Valid() {
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	if event.UserID == "" || event.OccurredAt.IsZero() {
		return fmt.Errorf("incomplete %s event", event.Type)
	}

	if err := c.auditRepo.Create(ctx, &event); err != nil {
		return fmt.Errorf("store auth event: %w", err)
	}
	slog.Info("auth event stored", "event_type", event.Type, "user_id", event.UserID)
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
