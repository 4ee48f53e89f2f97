package events

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ResultFinalizedHandler reacts to a finished attempt
type ResultFinalizedHandler func(ctx context.Context, event *ResultFinalizedEvent) error

// NewRouter builds a watermill router that feeds result.finalized messages
// to every registered handler.
func NewRouter(subscriber message.Subscriber, logger *slog.Logger, handlers map[string]ResultFinalizedHandler) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, err
	}

	for name, h := range handlers {
		handle := h
		router.AddNoPublisherHandler(name, TopicResultFinalized, subscriber, func(msg *message.Message) error {
			event, err := DecodeResultFinalized(msg)
			if err != nil {
				// poison message, ack it
				logger.Warn("Dropping malformed event", "message_id", msg.UUID, "error", err)
				return nil
			}
			return handle(msg.Context(), event)
		})
	}

	return router, nil
}
