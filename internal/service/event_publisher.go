package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-fitness-be/internal/pkg/logger"
	"ai-fitness-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IEventPublisher puts workout events on the in-process bus. Publishing never
// fails the caller; problems are logged.
type IEventPublisher interface {
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}

type eventPublisher struct {
	publisher message.Publisher
	topic     string
	logger    logger.ILogger
}

func NewEventPublisher(publisher message.Publisher, topic string, log logger.ILogger) IEventPublisher {
	return &eventPublisher{publisher: publisher, topic: topic, logger: log}
}

func (p *eventPublisher) Publish(_ context.Context, eventType string, data map[string]interface{}) {
	if p.publisher == nil {
		return
	}

	payload, err := json.Marshal(events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	})
	if err != nil {
		p.logger.Error("EventPublisher", "Failed to marshal event", map[string]interface{}{"type": eventType, "error": err.Error()})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.Error("EventPublisher", "Failed to publish event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}

// toEventData flattens a DTO into an event payload map.
func toEventData(v interface{}) map[string]interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
