// Package messaging publishes domain events.
package messaging

import (
	"context"

	"github.com/google/uuid"
)

// Event types published by the emissions service.
const (
	EventEmissionRecorded = "emission.recorded"
)

// Event is a domain event. Data is encoded as JSON.
type Event struct {
	ID            string
	Type          string
	CorrelationID string
	Data          any
}

// NewEvent creates an event with a fresh ID.
func NewEvent(eventType string, data any) Event {
	return Event{
		ID:   uuid.NewString(),
		Type: eventType,
		Data: data,
	}
}

// Publisher publishes events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close(ctx context.Context) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (NopPublisher) Close(context.Context) error { return nil }
