package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	TopicResultFinalized = "result.finalized"
)

// ResultFinalizedEvent is published once per persisted result
type ResultFinalizedEvent struct {
	ResultID        uint      `json:"result_id"`
	TestID          uint      `json:"test_id"`
	TestTitle       string    `json:"test_title"`
	UserID          *string   `json:"user_id,omitempty"`
	Score           int       `json:"score"`
	TotalQuestions  int       `json:"total_questions"`
	Audience        string    `json:"audience"`
	InvitationToken *string   `json:"invitation_token,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// EventPublisher publishes domain events
type EventPublisher interface {
	PublishResultFinalized(ctx context.Context, event *ResultFinalizedEvent) error
	Close() error
}

type watermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewEventPublisher publishes through any watermill publisher (gochannel or kafka)
func NewEventPublisher(publisher message.Publisher, logger *slog.Logger) EventPublisher {
	return &watermillPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *watermillPublisher) PublishResultFinalized(ctx context.Context, event *ResultFinalizedEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return p.publish(ctx, TopicResultFinalized, event)
}

func (p *watermillPublisher) publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	msg.Metadata.Set("topic", topic)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}

	p.logger.Debug("Event published", "topic", topic, "message_id", msg.UUID)
	return nil
}

func (p *watermillPublisher) Close() error {
	return p.publisher.Close()
}

// DecodeResultFinalized reads the payload of a result.finalized message
func DecodeResultFinalized(msg *message.Message) (*ResultFinalizedEvent, error) {
	var event ResultFinalizedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", TopicResultFinalized, err)
	}
	return &event, nil
}
