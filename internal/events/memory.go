package events

import (
	"context"
	"sync"

	"laundryops/internal/domain"
)

// RecordingPublisher keeps published events in memory for tests. Err, when
// set, is returned instead of recording.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderProcessedEvent
	Err    error
}

func (p *RecordingPublisher) PublishOrderProcessed(_ context.Context, event domain.OrderProcessedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Events() []domain.OrderProcessedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.OrderProcessedEvent, len(p.events))
	copy(out, p.events)
	return out
}
