// Package resilience wraps network calls in the failure-handling machinery
// the live map depends on: a per-endpoint circuit breaker and a retrying
// fetcher with per-attempt timeouts and jittered exponential backoff.
//
// Breakers are explicit, named instances handed out by a BreakerRegistry that
// a composition root owns; nothing in this package is a process global, so
// tests can build isolated instances and production code can scope breakers
// per logical backend.
package resilience
