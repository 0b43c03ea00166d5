// Package metrics exposes cache, fetch and circuit breaker health as
// Prometheus metrics on a dedicated registry.
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter
	CacheSize      prometheus.Gauge

	FetchAttempts prometheus.Counter
	FetchRetries  prometheus.Counter
	FetchFailures prometheus.Counter
	FetchDuration prometheus.Histogram

	BreakerState       *prometheus.GaugeVec   // endpoint label; 0=closed 1=open 2=half-open
	BreakerTransitions *prometheus.CounterVec // endpoint, to labels

	healthSource func() HealthStatus
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitmap_trip_cache_hits_total",
			Help: "Total trip cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitmap_trip_cache_misses_total",
			Help: "Total trip cache misses that stored a fresh entry.",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitmap_trip_cache_evictions_total",
			Help: "Total capacity evictions from the trip cache.",
		}),
		CacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitmap_trip_cache_size",
			Help: "Current number of cached trip entries.",
		}),
		FetchAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitmap_fetch_attempts_total",
			Help: "Total network attempts made by the retrying fetcher.",
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitmap_fetch_retries_total",
			Help: "Total retries after a failed attempt.",
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitmap_fetch_failures_total",
			Help: "Total failed network attempts.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transitmap_fetch_duration_seconds",
			Help:    "Duration of individual fetch attempts.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "transitmap_breaker_state",
			Help: "Circuit breaker state per endpoint (0=closed, 1=open, 2=half-open).",
		}, []string{"endpoint"}),
		BreakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transitmap_breaker_transitions_total",
			Help: "Circuit breaker state transitions per endpoint.",
		}, []string{"endpoint", "to"}),
	}

	reg.MustRegister(
		c.CacheHits, c.CacheMisses, c.CacheEvictions, c.CacheSize,
		c.FetchAttempts, c.FetchRetries, c.FetchFailures, c.FetchDuration,
		c.BreakerState, c.BreakerTransitions,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics and /health on the given
// address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	mux.HandleFunc("/health", c.handleHealth)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
