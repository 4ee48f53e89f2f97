package events

import (
	"context"
	"log/slog"
	"sync"
)

// MockEventPublisher records events in memory
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*ResultFinalizedEvent
	logger *slog.Logger
	Err    error
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) PublishResultFinalized(ctx context.Context, event *ResultFinalizedEvent) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	m.logger.Debug("Mock event published", "result_id", event.ResultID)
	return nil
}

func (m *MockEventPublisher) GetPublishedEvents() []*ResultFinalizedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ResultFinalizedEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockEventPublisher) Close() error { return nil }
