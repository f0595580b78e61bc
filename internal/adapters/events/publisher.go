package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/CalistoMango/TheShipyard-sub000/internal/contracts"
)

// LoggingPublisher emits notification events to the structured log. It stands
// in for a broker-backed sink in environments without one.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, event contracts.NotificationEvent) error {
	p.logger.InfoContext(ctx, "published event",
		"module", "events",
		"layer", "adapter",
		"operation", "publish",
		"outcome", "success",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"payload", string(event.Data),
	)
	return nil
}

// MemoryPublisher collects events for test assertions.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []contracts.NotificationEvent
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{events: []contracts.NotificationEvent{}}
}

func (p *MemoryPublisher) Publish(_ context.Context, event contracts.NotificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *MemoryPublisher) Events() []contracts.NotificationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]contracts.NotificationEvent, len(p.events))
	copy(out, p.events)
	return out
}
