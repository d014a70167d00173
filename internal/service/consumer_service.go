package service

import (
	"context"
	"encoding/json"

	"ai-fitness-be/internal/dto"
	"ai-fitness-be/internal/pkg/logger"
	"ai-fitness-be/internal/repository"
	"ai-fitness-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventForwarder ships events off the process, e.g. to NATS.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process bus: every event is forwarded and
// SESSION_ENDED summaries are persisted. Both sinks are optional.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	forwarder  EventForwarder
	summaries  repository.SummaryRepository
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	forwarder EventForwarder,
	summaries repository.SummaryRepository,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		forwarder:  forwarder,
		summaries:  summaries,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: the sinks are best effort and a nack would
// redeliver immediately in a tight loop while a sink is down.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var evt events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		cs.logger.Error("Consumer", "Failed to unmarshal event", map[string]interface{}{"error": err.Error()})
		return
	}

	if cs.forwarder != nil {
		if err := cs.forwarder.Publish(ctx, evt); err != nil {
			cs.logger.Warn("Consumer", "Failed to forward event", map[string]interface{}{"type": evt.Type, "error": err.Error()})
		}
	}

	if evt.Type == events.TypeSessionEnded && cs.summaries != nil {
		cs.saveSummary(ctx, evt)
	}
}

func (cs *consumerService) saveSummary(ctx context.Context, evt events.BaseEvent) {
	raw, err := json.Marshal(evt.Data)
	if err != nil {
		cs.logger.Error("Consumer", "Failed to encode summary", map[string]interface{}{"error": err.Error()})
		return
	}
	var summary dto.WorkoutSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		cs.logger.Error("Consumer", "Failed to decode summary", map[string]interface{}{"error": err.Error()})
		return
	}
	if summary.SessionId == "" {
		cs.logger.Warn("Consumer", "Summary without session id dropped", nil)
		return
	}

	if err := cs.summaries.Save(ctx, summary); err != nil {
		cs.logger.Error("Consumer", "Failed to save summary", map[string]interface{}{"session_id": summary.SessionId, "error": err.Error()})
		return
	}
	cs.logger.Info("Consumer", "Workout summary saved", map[string]interface{}{"session_id": summary.SessionId, "reps": summary.Reps})
}
