package main

import (
	"time"

	lib "github.com/theoremus-urban-solutions/transit-map-core"
	"github.com/theoremus-urban-solutions/transit-map-core/metrics"
	"github.com/theoremus-urban-solutions/transit-map-core/resilience"
)

// wireMetrics adapts the Prometheus collector to the small consumer-side
// interfaces the cache and fetcher expose.
func wireMetrics(core *lib.Core, col *metrics.Collector) {
	core.TripCache.SetMetrics(&cacheMetrics{c: col})
	core.Fetcher.SetMetrics(&fetchMetrics{c: col})

	breaker := core.Breakers.ForEndpoint(lib.TripAPIEndpoint)
	col.BreakerState.WithLabelValues(breaker.Name()).Set(float64(breaker.State()))
	breaker.OnTransition(func(name string, _, to resilience.BreakerState) {
		col.BreakerState.WithLabelValues(name).Set(float64(to))
		col.BreakerTransitions.WithLabelValues(name, to.String()).Inc()
	})

	col.SetHealthSource(func() metrics.HealthStatus {
		status := metrics.HealthStatus{Status: "ok", Breakers: map[string]string{}}
		core.Breakers.Each(func(b *resilience.CircuitBreaker) {
			state := b.State()
			status.Breakers[b.Name()] = state.String()
			if state == resilience.StateOpen {
				status.Status = "degraded"
			}
		})
		return status
	})
}

type cacheMetrics struct{ c *metrics.Collector }

func (m *cacheMetrics) CacheHit()      { m.c.CacheHits.Inc() }
func (m *cacheMetrics) CacheMiss()     { m.c.CacheMisses.Inc() }
func (m *cacheMetrics) CacheEviction() { m.c.CacheEvictions.Inc() }
func (m *cacheMetrics) CacheSize(n int) {
	m.c.CacheSize.Set(float64(n))
}

type fetchMetrics struct{ c *metrics.Collector }

func (m *fetchMetrics) FetchAttempt() { m.c.FetchAttempts.Inc() }
func (m *fetchMetrics) FetchRetry()   { m.c.FetchRetries.Inc() }
func (m *fetchMetrics) FetchFailure() { m.c.FetchFailures.Inc() }
func (m *fetchMetrics) FetchDuration(d time.Duration) {
	m.c.FetchDuration.Observe(d.Seconds())
}
