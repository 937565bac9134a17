package mocks

import (
	"context"
	"sync"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// MockPublisher records published events for assertions
type MockPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

// NewMockPublisher creates an empty MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the event
func (p *MockPublisher) Publish(ctx context.Context, event model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// Events returns a copy of all recorded events
func (p *MockPublisher) Events() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Event(nil), p.events...)
}

// OfType returns the recorded events of one type in publish order
func (p *MockPublisher) OfType(typ model.EventType) []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.Event
	for _, e := range p.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards recorded events
func (p *MockPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
