package messaging

import (
	"context"

	"github.com/consorcio/emissions/resilience"
)

// BreakerPublisher stops calling the broker after repeated failures so that
// an unreachable broker does not add a send timeout to every submission.
// While the circuit is open Publish returns resilience.ErrCircuitOpen.
type BreakerPublisher struct {
	next    Publisher
	breaker *resilience.CircuitBreaker
}

// NewBreakerPublisher wraps next with breaker.
func NewBreakerPublisher(next Publisher, breaker *resilience.CircuitBreaker) *BreakerPublisher {
	return &BreakerPublisher{next: next, breaker: breaker}
}

// Publish implements Publisher.
func (p *BreakerPublisher) Publish(ctx context.Context, event Event) error {
	return p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.next.Publish(ctx, event)
	})
}

// Close implements Publisher.
func (p *BreakerPublisher) Close(ctx context.Context) error {
	return p.next.Close(ctx)
}
