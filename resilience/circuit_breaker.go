// Package resilience provides a circuit breaker for calls to optional
// downstream services such as the event bus.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// StateClosed allows requests to pass through.
	StateClosed CircuitState = iota
	// StateOpen blocks all requests.
	StateOpen
	// StateHalfOpen allows a limited number of trial requests.
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned without calling the protected function.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this circuit breaker in logs.
	Name string

	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int

	// SuccessThreshold is the number of half-open successes needed to close.
	SuccessThreshold int

	// Timeout is how long the circuit stays open before a trial request.
	Timeout time.Duration

	// MaxRequests is the max requests allowed in half-open state.
	MaxRequests int

	// OnStateChange is called synchronously, outside the breaker lock.
	OnStateChange func(name string, from, to CircuitState)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// CircuitBreaker implements the circuit breaker pattern.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu               sync.Mutex
	state            CircuitState
	failures         int
	successes        int
	openedAt         time.Time
	halfOpenRequests int
}

// NewCircuitBreaker creates a new circuit breaker. Zero config values take
// the defaults.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	defaults := DefaultCircuitBreakerConfig(config.Name)
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = defaults.SuccessThreshold
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = defaults.MaxRequests
	}

	return &CircuitBreaker{
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Execute runs fn with circuit breaker protection. A cancelled context is
// returned without calling fn and is not counted as a failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !cb.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	cb.recordResult(err)
	return err
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()

	switch cb.state {
	case StateClosed:
		cb.mu.Unlock()
		return true

	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.Timeout {
			cb.mu.Unlock()
			return false
		}
		change := cb.transitionTo(StateHalfOpen)
		cb.halfOpenRequests = 1
		cb.mu.Unlock()
		change()
		return true

	case StateHalfOpen:
		allowed := cb.halfOpenRequests < cb.config.MaxRequests
		if allowed {
			cb.halfOpenRequests++
		}
		cb.mu.Unlock()
		return allowed

	default:
		cb.mu.Unlock()
		return false
	}
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()

	change := func() {}
	switch cb.state {
	case StateClosed:
		if err == nil {
			cb.failures = 0
			break
		}
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			change = cb.transitionTo(StateOpen)
		}

	case StateHalfOpen:
		if err != nil {
			change = cb.transitionTo(StateOpen)
			break
		}
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			change = cb.transitionTo(StateClosed)
		}
	}

	cb.mu.Unlock()
	change()
}

// transitionTo must be called with mu held. The returned function fires the
// state change callback and must be called after unlocking.
func (cb *CircuitBreaker) transitionTo(newState CircuitState) func() {
	if cb.state == newState {
		return func() {}
	}

	oldState := cb.state
	cb.state = newState
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenRequests = 0
	if newState == StateOpen {
		cb.openedAt = cb.now()
	}

	if cb.config.OnStateChange == nil {
		return func() {}
	}
	name := cb.config.Name
	return func() { cb.config.OnStateChange(name, oldState, newState) }
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset returns the circuit breaker to the closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	change := cb.transitionTo(StateClosed)
	cb.mu.Unlock()
	change()
}

// Metrics returns current metrics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerMetrics{
		Name:      cb.config.Name,
		State:     cb.state.String(),
		Failures:  cb.failures,
		Successes: cb.successes,
		OpenedAt:  cb.openedAt,
	}
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	Name      string    `json:"name"`
	State     string    `json:"state"`
	Failures  int       `json:"failures"`
	Successes int       `json:"successes"`
	OpenedAt  time.Time `json:"opened_at,omitempty"`
}
