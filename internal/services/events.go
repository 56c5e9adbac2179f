package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/renchester/blog-api/internal/infrastructure/kafka"
	"github.com/renchester/blog-api/internal/infrastructure/observability"
	"github.com/renchester/blog-api/internal/models"
)

// eventPublisher sends auth events to Kafka. Failures are logged and never
// returned to the caller.
type eventPublisher struct {
	producer kafka.KafkaProducer
	topic    string
	nowFunc  func() time.Time
}

func newEventPublisher(producer kafka.KafkaProducer, topic string) *eventPublisher {
	return &eventPublisher{producer: producer, topic: topic, nowFunc: time.Now}
}

func (p *eventPublisher) publish(ctx context.Context, eventType models.EventType, user *models.User) {
	if p == nil || p.producer == nil || user == nil {
		return
	}
	event := models.AuthEvent{
		Type:       eventType,
		UserID:     user.ID,
		Username:   user.Username,
		OccurredAt: p.nowFunc().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		observability.WithContext(ctx).Error("failed to marshal auth event", "event_type", eventType, "error", err)
		return
	}
	if err := p.producer.Send(ctx, p.topic, user.ID, payload); err != nil {
		observability.WithContext(ctx).Error("failed to publish auth event",
			"event_type", eventType,
			"user_id", user.ID,
			"error", err)
	}
}
