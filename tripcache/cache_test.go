package tripcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theoremus-urban-solutions/transit-map-core/trips"
)

func details(id string) *trips.TripDetails {
	return &trips.TripDetails{TripID: id, StopTimes: []trips.StopTime{{StopID: "s1", StopSequence: 1}}}
}

// countingFetch returns a FetchFunc that records how many fetches ran.
func countingFetch(calls *int32, err error) FetchFunc {
	return func(ctx context.Context, tripID string) (*trips.TripDetails, error) {
		atomic.AddInt32(calls, 1)
		if err != nil {
			return nil, err
		}
		return details(tripID), nil
	}
}

func TestGetOrFetchCachesResult(t *testing.T) {
	var calls int32
	c := New(countingFetch(&calls, nil), Options{})

	first, err := c.GetOrFetch(context.Background(), "T1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.GetOrFetch(context.Background(), "T1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("second call must return the cached payload")
	}
	if calls != 1 {
		t.Errorf("expected 1 fetch, got %d", calls)
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("expected 1 hit / 1 miss, got %d / %d", s.Hits, s.Misses)
	}
	if s.HitRate != 0.5 {
		t.Errorf("expected hit rate 0.5, got %v", s.HitRate)
	}
}

func TestGetOrFetchCoalescesConcurrentCalls(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	c := New(func(ctx context.Context, tripID string) (*trips.TripDetails, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return details(tripID), nil
	}, Options{})

	const waiters = 3
	results := make([]*trips.TripDetails, waiters)
	errs := make([]error, waiters)

	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrFetch(context.Background(), "T")
		}(i)
	}

	// Let all three goroutines reach the cache before the fetch settles.
	for c.IsPending("T") == false {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Fatalf("3 concurrent calls must trigger exactly 1 fetch, got %d", calls)
	}
	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Fatalf("waiter %d: unexpected error %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Errorf("waiter %d: all waiters must see the same payload", i)
		}
	}
}

func TestTTLExpiry(t *testing.T) {
	var calls int32
	c := New(countingFetch(&calls, nil), Options{TTL: 1500 * time.Millisecond})

	base := time.Unix(1700000000, 0)
	now := base
	c.now = func() time.Time { return now }

	if _, err := c.GetOrFetch(context.Background(), "T"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = base.Add(1499 * time.Millisecond)
	if got := c.Get("T"); got == nil {
		t.Error("entry must still be fresh 1ms before the TTL boundary")
	}
	if !c.Has("T") {
		t.Error("Has must agree with Get on freshness")
	}

	now = base.Add(1500 * time.Millisecond)
	if got := c.Get("T"); got != nil {
		t.Error("entry must be expired once the TTL has fully elapsed")
	}
	if c.Has("T") {
		t.Error("expired entries must not count as present")
	}

	// Expiry is lazy: the entry stayed in the map until the read touched it,
	// and a refetch repopulates.
	if _, err := c.GetOrFetch(context.Background(), "T"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected a refetch after expiry, got %d fetches", calls)
	}
}

func TestEvictionOldestFirst(t *testing.T) {
	var calls int32
	c := New(countingFetch(&calls, nil), Options{MaxSize: 3})

	for _, id := range []string{"A", "B", "C"} {
		if _, err := c.GetOrFetch(context.Background(), id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if s := c.Stats(); s.Size != 3 {
		t.Fatalf("expected size 3, got %d", s.Size)
	}

	if _, err := c.GetOrFetch(context.Background(), "D"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Has("A") {
		t.Error("inserting a 4th key must evict the 1st-inserted key")
	}
	for _, id := range []string{"B", "C", "D"} {
		if !c.Has(id) {
			t.Errorf("expected %s to survive eviction", id)
		}
	}
	if s := c.Stats(); s.Size != 3 {
		t.Errorf("size must never exceed the configured maximum, got %d", s.Size)
	}
}

func TestFailureIsNotCached(t *testing.T) {
	fetchErr := errors.New("backend exploded")
	var calls int32
	failing := countingFetch(&calls, fetchErr)

	c := New(failing, Options{})
	if _, err := c.GetOrFetch(context.Background(), "T"); !errors.Is(err, fetchErr) {
		t.Fatalf("expected the fetch error to surface, got %v", err)
	}
	if c.Has("T") {
		t.Error("failures must not be cached")
	}
	if c.IsPending("T") {
		t.Error("pending marker must be cleared after failure")
	}
	if s := c.Stats(); s.Misses != 0 {
		t.Errorf("failed fetches must not count as misses, got %d", s.Misses)
	}

	// A subsequent call attempts a fresh fetch.
	if _, err := c.GetOrFetch(context.Background(), "T"); !errors.Is(err, fetchErr) {
		t.Fatalf("expected a fresh attempt, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 fetches, got %d", calls)
	}
}

func TestPrefetchSkipsCachedAndPending(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	c := New(func(ctx context.Context, tripID string) (*trips.TripDetails, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return details(tripID), nil
	}, Options{})

	c.Prefetch(context.Background(), "T")
	for !c.IsPending("T") {
		time.Sleep(time.Millisecond)
	}
	c.Prefetch(context.Background(), "T") // already in flight, skipped
	close(release)

	for c.IsPending("T") {
		time.Sleep(time.Millisecond)
	}
	c.Prefetch(context.Background(), "T") // already cached, skipped
	time.Sleep(10 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 fetch, got %d", got)
	}
}

func TestPrefetchSwallowsErrors(t *testing.T) {
	var calls int32
	c := New(countingFetch(&calls, errors.New("boom")), Options{})

	c.Prefetch(context.Background(), "T")
	for c.IsPending("T") || atomic.LoadInt32(&calls) == 0 {
		time.Sleep(time.Millisecond)
	}

	// Error swallowed; nothing cached; no panic.
	if c.Has("T") {
		t.Error("failed prefetch must not populate the cache")
	}
}

func TestInvalidateAndClear(t *testing.T) {
	var calls int32
	c := New(countingFetch(&calls, nil), Options{})

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("T%d", i)
		if _, err := c.GetOrFetch(context.Background(), id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	c.Invalidate("T0")
	if c.Has("T0") {
		t.Error("invalidated entry must be gone")
	}
	if !c.Has("T1") {
		t.Error("other entries must survive Invalidate")
	}

	c.Clear()
	if s := c.Stats(); s.Size != 0 {
		t.Errorf("expected empty cache after Clear, got size %d", s.Size)
	}
}

func TestStatsEmptyCache(t *testing.T) {
	c := New(countingFetch(new(int32), nil), Options{})
	s := c.Stats()
	if s.HitRate != 0 {
		t.Errorf("hit rate must be 0 with no requests, got %v", s.HitRate)
	}
}
