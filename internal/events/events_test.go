package events

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainmetric/quiz-service/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestPublishResultFinalized_GoChannel(t *testing.T) {
	logger := testLogger()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, TopicResultFinalized)
	require.NoError(t, err)

	publisher := NewEventPublisher(pubSub, logger)
	userID := "user-1"
	require.NoError(t, publisher.PublishResultFinalized(ctx, &ResultFinalizedEvent{
		ResultID:       7,
		TestID:         3,
		UserID:         &userID,
		Score:          5,
		TotalQuestions: 10,
	}))

	select {
	case msg := <-messages:
		event, err := DecodeResultFinalized(msg)
		require.NoError(t, err)
		msg.Ack()
		assert.Equal(t, uint(7), event.ResultID)
		assert.Equal(t, 5, event.Score)
		require.NotNil(t, event.UserID)
		assert.Equal(t, "user-1", *event.UserID)
		assert.False(t, event.OccurredAt.IsZero())
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}

func TestRouter_DeliversToHandler(t *testing.T) {
	logger := testLogger()
	bus, err := NewBus(config.KafkaConfig{}, logger)
	require.NoError(t, err)
	defer bus.Close()
	assert.Equal(t, "gochannel", bus.Transport)

	received := make(chan *ResultFinalizedEvent, 1)
	router, err := NewRouter(bus.Subscriber, logger, map[string]ResultFinalizedHandler{
		"collect": func(ctx context.Context, event *ResultFinalizedEvent) error {
			received <- event
			return nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	publisher := NewEventPublisher(bus.Publisher, logger)
	require.NoError(t, publisher.PublishResultFinalized(ctx, &ResultFinalizedEvent{ResultID: 42}))

	select {
	case event := <-received:
		assert.Equal(t, uint(42), event.ResultID)
	case <-ctx.Done():
		t.Fatal("handler was not called")
	}
}

func TestMockEventPublisher(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())
	require.NoError(t, mock.PublishResultFinalized(context.Background(), &ResultFinalizedEvent{ResultID: 1}))
	require.NoError(t, mock.PublishResultFinalized(context.Background(), &ResultFinalizedEvent{ResultID: 2}))

	published := mock.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, uint(2), published[1].ResultID)
}
