package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

const (
	DefaultMaxAttempts    = 3
	DefaultAttemptTimeout = 15 * time.Second
	DefaultBaseDelay      = 1 * time.Second
	DefaultMaxDelay       = 5 * time.Second
)

// StatusError carries an HTTP-equivalent status code through the retry
// classification: 5xx and status 0 are retryable, 4xx are returned to the
// caller immediately.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Retryable reports whether the status indicates a transient server-side
// failure.
func (e *StatusError) Retryable() bool {
	return e.Code == 0 || e.Code >= 500
}

// CallFunc performs one network attempt under the given context.
type CallFunc func(ctx context.Context) ([]byte, error)

// RetryConfig tunes a RetryingFetcher. Zero values select defaults.
type RetryConfig struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	BaseDelay      time.Duration
	MaxDelay       time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	return c
}

// FetcherMetrics receives attempt-level observations. Implementations must
// tolerate concurrent calls.
type FetcherMetrics interface {
	FetchAttempt()
	FetchRetry()
	FetchFailure()
	FetchDuration(d time.Duration)
}

// RetryingFetcher runs a CallFunc with a per-attempt timeout, consults its
// circuit breaker before every attempt, and retries transient failures with
// jittered exponential backoff.
type RetryingFetcher struct {
	cfg     RetryConfig
	breaker *CircuitBreaker
	metrics FetcherMetrics

	// sleep is context-aware and replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
	// jitter returns a uniform random fraction in [0,1).
	jitter func() float64
}

// NewRetryingFetcher wraps attempts against the endpoint group guarded by
// breaker. The breaker must not be nil.
func NewRetryingFetcher(cfg RetryConfig, breaker *CircuitBreaker) *RetryingFetcher {
	return &RetryingFetcher{
		cfg:     cfg.withDefaults(),
		breaker: breaker,
		sleep:   sleepCtx,
		jitter:  rand.Float64,
	}
}

// SetMetrics attaches optional instrumentation. Not safe to call once Do is
// in flight.
func (f *RetryingFetcher) SetMetrics(m FetcherMetrics) { f.metrics = m }

// Do runs call until it succeeds, fails non-retryably, exhausts the attempt
// budget, or the breaker opens. A timeout counts as a retryable failure.
// Every attempt's outcome is recorded into the breaker; an open breaker
// fails fast with *CircuitOpenError and no network call.
func (f *RetryingFetcher) Do(ctx context.Context, call CallFunc) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if err := f.breaker.CheckState(); err != nil {
			return nil, err
		}

		if attempt > 1 {
			if f.metrics != nil {
				f.metrics.FetchRetry()
			}
			if err := f.sleep(ctx, f.backoffDelay(attempt-1)); err != nil {
				return nil, err
			}
		}
		if f.metrics != nil {
			f.metrics.FetchAttempt()
		}

		attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.AttemptTimeout)
		start := time.Now()
		body, err := call(attemptCtx)
		cancel()
		if f.metrics != nil {
			f.metrics.FetchDuration(time.Since(start))
		}

		if err == nil {
			f.breaker.RecordSuccess()
			return body, nil
		}

		f.breaker.RecordFailure()
		if f.metrics != nil {
			f.metrics.FetchFailure()
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err

		// The caller giving up trumps the retry budget.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", f.cfg.MaxAttempts, lastErr)
}

// backoffDelay computes min(base*2^(retry-1), max) plus uniform jitter in
// [0, d/2], desynchronizing retry storms across clients.
func (f *RetryingFetcher) backoffDelay(retry int) time.Duration {
	d := f.cfg.BaseDelay << (retry - 1)
	if d > f.cfg.MaxDelay || d <= 0 {
		d = f.cfg.MaxDelay
	}
	return d + time.Duration(f.jitter()*float64(d)/2)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	// Transport-level failures are assumed transient.
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
