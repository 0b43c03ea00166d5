package resilience

import (
	"fmt"
	"sync"
	"time"
)

// BreakerState is the circuit breaker's current disposition toward requests.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

const (
	DefaultFailureThreshold = 5
	DefaultResetTimeout     = 30 * time.Second
)

// CircuitOpenError signals that the breaker is refusing requests for a
// known-bad endpoint. Callers should degrade gracefully rather than retry.
type CircuitOpenError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit open for %s, retry after %s", e.Name, e.RetryAfter.Round(time.Millisecond))
}

// CircuitBreaker gates requests to one named endpoint group. Failures in the
// closed state accumulate until the threshold trips the breaker open; after
// the reset timeout elapses a single trial call is let through half-open.
// The open state is only left via the elapsed timeout inside CheckState.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	resetTimeout     time.Duration

	mu                  sync.Mutex
	state               BreakerState
	consecutiveFailures int
	lastFailure         time.Time
	successes           int64
	failures            int64

	now          func() time.Time
	onTransition func(name string, from, to BreakerState)
}

// NewCircuitBreaker creates a breaker for the named endpoint group.
// Non-positive threshold or timeout select the defaults.
func NewCircuitBreaker(name string, failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if resetTimeout <= 0 {
		resetTimeout = DefaultResetTimeout
	}
	return &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}
}

// OnTransition registers a callback invoked after every state change.
func (b *CircuitBreaker) OnTransition(fn func(name string, from, to BreakerState)) {
	b.mu.Lock()
	b.onTransition = fn
	b.mu.Unlock()
}

// Name returns the endpoint group this breaker guards.
func (b *CircuitBreaker) Name() string { return b.name }

// CheckState returns nil when a request may proceed. In the open state it
// returns a *CircuitOpenError until the reset timeout has elapsed, at which
// point the breaker moves to half-open and allows a single trial call.
func (b *CircuitBreaker) CheckState() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	elapsed := b.now().Sub(b.lastFailure)
	if elapsed >= b.resetTimeout {
		b.transition(StateHalfOpen)
		return nil
	}
	return &CircuitOpenError{Name: b.name, RetryAfter: b.resetTimeout - elapsed}
}

// RecordSuccess notes a successful call. In half-open it closes the breaker
// and resets the failure counter.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes++
	b.consecutiveFailures = 0
	if b.state == StateHalfOpen {
		b.transition(StateClosed)
	}
}

// RecordFailure notes a failed call. The half-open trial failing re-opens the
// breaker immediately; in the closed state the breaker opens once the
// consecutive-failure threshold is reached.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()

	if b.state == StateHalfOpen {
		b.transition(StateOpen)
		return
	}

	b.consecutiveFailures++
	if b.state == StateClosed && b.consecutiveFailures >= b.failureThreshold {
		b.transition(StateOpen)
	}
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Counts returns the total successes and failures recorded so far.
func (b *CircuitBreaker) Counts() (successes, failures int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.successes, b.failures
}

func (b *CircuitBreaker) transition(to BreakerState) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if to == StateClosed {
		b.consecutiveFailures = 0
	}
	if b.onTransition != nil {
		b.onTransition(b.name, from, to)
	}
}

// BreakerRegistry hands out one lazily-created breaker per endpoint group
// name. Breakers live for the registry's lifetime.
type BreakerRegistry struct {
	failureThreshold int
	resetTimeout     time.Duration

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewBreakerRegistry creates a registry whose breakers share the given
// threshold and reset timeout (non-positive values select defaults).
func NewBreakerRegistry(failureThreshold int, resetTimeout time.Duration) *BreakerRegistry {
	return &BreakerRegistry{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		breakers:         map[string]*CircuitBreaker{},
	}
}

// ForEndpoint returns the breaker for the named endpoint group, creating it
// on first use.
func (r *BreakerRegistry) ForEndpoint(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := NewCircuitBreaker(name, r.failureThreshold, r.resetTimeout)
	r.breakers[name] = b
	return b
}

// Each calls fn for every breaker created so far.
func (r *BreakerRegistry) Each(fn func(*CircuitBreaker)) {
	r.mu.Lock()
	names := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		names = append(names, b)
	}
	r.mu.Unlock()
	for _, b := range names {
		fn(b)
	}
}
