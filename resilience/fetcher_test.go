package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// newTestFetcher builds a fetcher with instant sleeps and deterministic
// jitter so tests run fast.
func newTestFetcher(cfg RetryConfig, breaker *CircuitBreaker) *RetryingFetcher {
	f := NewRetryingFetcher(cfg, breaker)
	f.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	f.jitter = func() float64 { return 0 }
	return f
}

func TestFetcherRetriesTransientFailure(t *testing.T) {
	b := NewCircuitBreaker("api", 5, 30*time.Second)
	f := newTestFetcher(RetryConfig{MaxAttempts: 3}, b)

	attempts := 0
	body, err := f.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		attempts++
		if attempts == 1 {
			return nil, &StatusError{Code: 500}
		}
		return []byte("ok"), nil
	})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("expected body ok, got %q", body)
	}
	if attempts != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", attempts)
	}
}

func TestFetcherDoesNotRetryClientErrors(t *testing.T) {
	b := NewCircuitBreaker("api", 5, 30*time.Second)
	f := newTestFetcher(RetryConfig{MaxAttempts: 3}, b)

	attempts := 0
	_, err := f.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		attempts++
		return nil, &StatusError{Code: 404}
	})

	var se *StatusError
	if !errors.As(err, &se) || se.Code != 404 {
		t.Fatalf("expected the 404 to surface directly, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("4xx must not be retried, got %d attempts", attempts)
	}
}

func TestFetcherExhaustsAttempts(t *testing.T) {
	b := NewCircuitBreaker("api", 10, 30*time.Second)
	f := newTestFetcher(RetryConfig{MaxAttempts: 3}, b)

	attempts := 0
	_, err := f.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		attempts++
		return nil, &StatusError{Code: 503}
	})
	if err == nil {
		t.Fatal("expected an aggregated error")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	// The aggregated error wraps the last underlying failure.
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 503 {
		t.Errorf("expected wrapped 503, got %v", err)
	}

	if _, failures := b.Counts(); failures != 3 {
		t.Errorf("every attempt must be recorded, got %d failures", failures)
	}
}

func TestFetcherFailsFastWhenCircuitOpen(t *testing.T) {
	b := NewCircuitBreaker("api", 2, 30*time.Second)
	b.RecordFailure()
	b.RecordFailure() // open

	f := newTestFetcher(RetryConfig{MaxAttempts: 3}, b)

	attempts := 0
	_, err := f.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		attempts++
		return []byte("ok"), nil
	})

	var openErr *CircuitOpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected *CircuitOpenError, got %v", err)
	}
	if attempts != 0 {
		t.Errorf("open circuit must not hit the network, got %d attempts", attempts)
	}
}

func TestFetcherTimeoutIsRetryable(t *testing.T) {
	b := NewCircuitBreaker("api", 10, 30*time.Second)
	f := newTestFetcher(RetryConfig{MaxAttempts: 2, AttemptTimeout: 10 * time.Millisecond}, b)

	attempts := 0
	body, err := f.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		attempts++
		if attempts == 1 {
			<-ctx.Done() // simulate a hung request until the attempt times out
			return nil, ctx.Err()
		}
		return []byte("ok"), nil
	})
	if err != nil {
		t.Fatalf("expected recovery on the second attempt, got %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("expected body ok, got %q", body)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestFetcherRespectsCallerCancellation(t *testing.T) {
	b := NewCircuitBreaker("api", 10, 30*time.Second)
	f := newTestFetcher(RetryConfig{MaxAttempts: 5}, b)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := f.Do(ctx, func(ctx context.Context) ([]byte, error) {
		attempts++
		cancel()
		return nil, &StatusError{Code: 500}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("cancellation must stop the retry loop, got %d attempts", attempts)
	}
}

func TestBackoffDelay(t *testing.T) {
	b := NewCircuitBreaker("api", 5, 30*time.Second)
	f := newTestFetcher(RetryConfig{
		BaseDelay: 1000 * time.Millisecond,
		MaxDelay:  5000 * time.Millisecond,
	}, b)

	tests := []struct {
		retry    int
		expected time.Duration
	}{
		{retry: 1, expected: 1000 * time.Millisecond},
		{retry: 2, expected: 2000 * time.Millisecond},
		{retry: 3, expected: 4000 * time.Millisecond},
		{retry: 4, expected: 5000 * time.Millisecond}, // capped
		{retry: 5, expected: 5000 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := f.backoffDelay(tt.retry); got != tt.expected {
			t.Errorf("retry %d: expected %v, got %v", tt.retry, tt.expected, got)
		}
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewCircuitBreaker("api", 5, 30*time.Second)
	f := NewRetryingFetcher(RetryConfig{
		BaseDelay: 1000 * time.Millisecond,
		MaxDelay:  5000 * time.Millisecond,
	}, b)

	// With real jitter the delay stays within [d, 1.5d].
	for i := 0; i < 100; i++ {
		d := f.backoffDelay(2)
		if d < 2000*time.Millisecond || d > 3000*time.Millisecond {
			t.Fatalf("jittered delay %v outside [2s, 3s]", d)
		}
	}
}
