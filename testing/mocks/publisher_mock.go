package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/consorcio/emissions/messaging"
)

// MockEvent represents a captured event.
type MockEvent struct {
	messaging.Event
	Timestamp time.Time
}

// MockPublisher is a messaging.Publisher that records what it is given.
type MockPublisher struct {
	mu         sync.RWMutex
	events     []MockEvent
	shouldFail bool
	failError  error
	closed     bool
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		events: make([]MockEvent, 0),
	}
}

// Publish records the event.
func (m *MockPublisher) Publish(ctx context.Context, event messaging.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return m.failError
	}

	m.events = append(m.events, MockEvent{Event: event, Timestamp: time.Now()})
	return nil
}

// Close marks the publisher closed.
func (m *MockPublisher) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockPublisher) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.closed
}

// GetEvents returns all captured events.
func (m *MockPublisher) GetEvents() []MockEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]MockEvent{}, m.events...)
}

// GetEventsByType returns events of one type.
func (m *MockPublisher) GetEventsByType(eventType string) []MockEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filtered := make([]MockEvent, 0)
	for _, event := range m.events {
		if event.Type == eventType {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// GetEventCount returns the number of events.
func (m *MockPublisher) GetEventCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.events)
}

// Clear clears all events.
func (m *MockPublisher) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = make([]MockEvent, 0)
}

// SetShouldFail sets whether the publisher should fail on publish.
func (m *MockPublisher) SetShouldFail(shouldFail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shouldFail = shouldFail
	m.failError = err
}

// WaitForEvent waits for an event of the given type.
func (m *MockPublisher) WaitForEvent(eventType string, timeout time.Duration) (*MockEvent, bool) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		m.mu.RLock()
		for i := len(m.events) - 1; i >= 0; i-- {
			if m.events[i].Type == eventType {
				event := m.events[i]
				m.mu.RUnlock()
				return &event, true
			}
		}
		m.mu.RUnlock()
		time.Sleep(10 * time.Millisecond)
	}

	return nil, false
}

// AssertEventPublished reports whether an event of the type was published.
func (m *MockPublisher) AssertEventPublished(eventType string) bool {
	return len(m.GetEventsByType(eventType)) > 0
}

// AssertNoEvents reports whether nothing was published.
func (m *MockPublisher) AssertNoEvents() bool {
	return m.GetEventCount() == 0
}
