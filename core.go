// Package transitmapcore wires the live-map client core together: geometry
// preprocessing and path extraction, visual declutter services, and the
// resilient trip-detail fetch stack (circuit breaker, retrying fetcher,
// TTL cache).
//
// Everything is an explicitly constructed instance owned by a Core; there are
// no package-level singletons, so tests and embedders can build as many
// isolated cores as they need.
package transitmapcore

import (
	"time"

	"github.com/theoremus-urban-solutions/transit-map-core/config"
	"github.com/theoremus-urban-solutions/transit-map-core/display"
	"github.com/theoremus-urban-solutions/transit-map-core/resilience"
	"github.com/theoremus-urban-solutions/transit-map-core/tripcache"
	"github.com/theoremus-urban-solutions/transit-map-core/trips"
)

// TripAPIEndpoint names the breaker group guarding the trip-detail backend.
const TripAPIEndpoint = "trip-api"

// Core is the composition root. It owns the breaker registry, the trip
// client and cache, and the line offset manager, all built from one
// AppConfig.
type Core struct {
	Config config.AppConfig

	Breakers   *resilience.BreakerRegistry
	Fetcher    *resilience.RetryingFetcher
	TripClient *trips.Client
	TripCache  *tripcache.Cache
	Offsets    *display.LineOffsetManager
}

// NewCore builds a fully wired core from cfg. Zero config values fall back
// to each component's defaults.
func NewCore(cfg config.AppConfig) *Core {
	registry := resilience.NewBreakerRegistry(
		cfg.TripAPI.FailureThreshold,
		time.Duration(cfg.TripAPI.ResetTimeoutMS)*time.Millisecond,
	)

	fetcher := resilience.NewRetryingFetcher(resilience.RetryConfig{
		MaxAttempts:    cfg.TripAPI.MaxAttempts,
		AttemptTimeout: time.Duration(cfg.TripAPI.TimeoutMS) * time.Millisecond,
		BaseDelay:      time.Duration(cfg.TripAPI.BaseDelayMS) * time.Millisecond,
		MaxDelay:       time.Duration(cfg.TripAPI.MaxDelayMS) * time.Millisecond,
	}, registry.ForEndpoint(TripAPIEndpoint))

	client := trips.NewClient(cfg.TripAPI.BaseURL, fetcher)

	cache := tripcache.New(client.FetchTripDetails, tripcache.Options{
		TTL:     time.Duration(cfg.Cache.TTLMS) * time.Millisecond,
		MaxSize: cfg.Cache.MaxSize,
	})

	return &Core{
		Config:     cfg,
		Breakers:   registry,
		Fetcher:    fetcher,
		TripClient: client,
		TripCache:  cache,
		Offsets:    display.NewLineOffsetManager(cfg.Offsets.Groups),
	}
}
