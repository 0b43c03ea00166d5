package tripcache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/theoremus-urban-solutions/transit-map-core/trips"
)

const (
	DefaultTTL     = 60 * time.Second
	DefaultMaxSize = 100
)

// FetchFunc loads the detail payload for one trip, typically
// (*trips.Client).FetchTripDetails.
type FetchFunc func(ctx context.Context, tripID string) (*trips.TripDetails, error)

// Metrics receives cache observations. Implementations must tolerate
// concurrent calls.
type Metrics interface {
	CacheHit()
	CacheMiss()
	CacheEviction()
	CacheSize(n int)
}

// Stats is a point-in-time summary of cache effectiveness.
type Stats struct {
	Hits    uint64
	Misses  uint64
	HitRate float64
	Size    int
}

// Options tunes a Cache. Zero values select defaults.
type Options struct {
	TTL     time.Duration
	MaxSize int
}

type entry struct {
	details   *trips.TripDetails
	fetchedAt time.Time
}

// pendingFetch is shared by every caller waiting on the same trip id.
// done is closed exactly once, after details and err are set.
type pendingFetch struct {
	done    chan struct{}
	details *trips.TripDetails
	err     error
}

// Cache is a TTL+size-bounded trip-detail cache with request de-duplication.
// Construct one per logical backend and pass it by reference; there are no
// package-level instances.
type Cache struct {
	fetch   FetchFunc
	ttl     time.Duration
	maxSize int
	metrics Metrics

	mu      sync.Mutex
	entries map[string]*entry
	order   []string // insertion order, oldest first
	pending map[string]*pendingFetch
	hits    uint64
	misses  uint64

	now func() time.Time
}

// New creates a Cache that populates itself through fetch.
func New(fetch FetchFunc, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	return &Cache{
		fetch:   fetch,
		ttl:     opts.TTL,
		maxSize: opts.MaxSize,
		entries: map[string]*entry{},
		pending: map[string]*pendingFetch{},
		now:     time.Now,
	}
}

// SetMetrics attaches optional instrumentation. Call before first use.
func (c *Cache) SetMetrics(m Metrics) { c.metrics = m }

// Get returns the cached payload for tripID, or nil when absent or expired.
// An expired entry is removed on touch.
func (c *Cache) Get(tripID string) *trips.TripDetails {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(tripID)
}

func (c *Cache) getLocked(tripID string) *trips.TripDetails {
	e, ok := c.entries[tripID]
	if !ok {
		return nil
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		c.removeLocked(tripID)
		return nil
	}
	return e.details
}

// GetOrFetch returns the cached payload or fetches it. Concurrent calls for
// the same trip id share a single underlying fetch; each waiter receives the
// same payload or error. A waiter whose ctx is cancelled stops waiting, but
// the shared fetch keeps running and may still populate the cache.
func (c *Cache) GetOrFetch(ctx context.Context, tripID string) (*trips.TripDetails, error) {
	c.mu.Lock()
	if d := c.getLocked(tripID); d != nil {
		c.hits++
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.CacheHit()
		}
		return d, nil
	}

	if p, ok := c.pending[tripID]; ok {
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.done:
			return p.details, p.err
		}
	}

	p := &pendingFetch{done: make(chan struct{})}
	c.pending[tripID] = p
	c.mu.Unlock()

	details, err := c.fetch(ctx, tripID)

	c.mu.Lock()
	delete(c.pending, tripID)
	if err == nil {
		c.storeLocked(tripID, details)
		c.misses++
	}
	c.mu.Unlock()
	if err == nil && c.metrics != nil {
		c.metrics.CacheMiss()
	}

	p.details = details
	p.err = err
	close(p.done)
	return details, err
}

// Prefetch warms the cache for tripID in the background. Ids already cached
// or in flight are skipped; failures are logged and swallowed.
func (c *Cache) Prefetch(ctx context.Context, tripID string) {
	c.mu.Lock()
	_, inFlight := c.pending[tripID]
	cached := c.getLocked(tripID) != nil
	c.mu.Unlock()
	if cached || inFlight {
		return
	}

	go func() {
		if _, err := c.GetOrFetch(ctx, tripID); err != nil {
			log.Printf("prefetch trip %s: %v", tripID, err)
		}
	}()
}

// PrefetchMany warms the cache for several trip ids.
func (c *Cache) PrefetchMany(ctx context.Context, tripIDs []string) {
	for _, id := range tripIDs {
		c.Prefetch(ctx, id)
	}
}

// Invalidate drops the entry for tripID, if any.
func (c *Cache) Invalidate(tripID string) {
	c.mu.Lock()
	c.removeLocked(tripID)
	c.mu.Unlock()
}

// Clear drops every cached entry. In-flight fetches are unaffected.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = map[string]*entry{}
	c.order = c.order[:0]
	if c.metrics != nil {
		c.metrics.CacheSize(0)
	}
	c.mu.Unlock()
}

// Has reports whether a fresh entry exists for tripID.
func (c *Cache) Has(tripID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[tripID]
	return ok && c.now().Sub(e.fetchedAt) < c.ttl
}

// IsPending reports whether a fetch for tripID is in flight.
func (c *Cache) IsPending(tripID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[tripID]
	return ok
}

// Stats returns hit/miss counters and the current size. HitRate is 0 when no
// requests have been observed.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Hits: c.hits, Misses: c.misses, Size: len(c.entries)}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

func (c *Cache) storeLocked(tripID string, details *trips.TripDetails) {
	if _, exists := c.entries[tripID]; exists {
		c.dropFromOrderLocked(tripID)
	}
	c.entries[tripID] = &entry{details: details, fetchedAt: c.now()}
	c.order = append(c.order, tripID)

	for len(c.entries) > c.maxSize {
		oldest := c.order[0]
		c.removeLocked(oldest)
		if c.metrics != nil {
			c.metrics.CacheEviction()
		}
	}
	if c.metrics != nil {
		c.metrics.CacheSize(len(c.entries))
	}
}

func (c *Cache) removeLocked(tripID string) {
	if _, ok := c.entries[tripID]; !ok {
		return
	}
	delete(c.entries, tripID)
	c.dropFromOrderLocked(tripID)
	if c.metrics != nil {
		c.metrics.CacheSize(len(c.entries))
	}
}

func (c *Cache) dropFromOrderLocked(tripID string) {
	for i, id := range c.order {
		if id == tripID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
