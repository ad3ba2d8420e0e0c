package messaging

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/consorcio/emissions/telemetry"
)

// TracedPublisher records a producer span around every publish.
type TracedPublisher struct {
	next        Publisher
	tracer      trace.Tracer
	system      string
	destination string
}

// NewTracedPublisher wraps next. destination names the queue or topic.
func NewTracedPublisher(next Publisher, tracer trace.Tracer, system, destination string) *TracedPublisher {
	return &TracedPublisher{next: next, tracer: tracer, system: system, destination: destination}
}

// Publish implements Publisher.
func (p *TracedPublisher) Publish(ctx context.Context, event Event) error {
	return telemetry.WrapMessagingOperation(ctx, p.tracer, p.system, p.destination, "publish", func(ctx context.Context) error {
		return p.next.Publish(ctx, event)
	})
}

// Close implements Publisher.
func (p *TracedPublisher) Close(ctx context.Context) error {
	return p.next.Close(ctx)
}
