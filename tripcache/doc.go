// Package tripcache bounds trip-detail lookups in time and size and coalesces
// concurrent requests for the same trip onto a single in-flight fetch.
//
// Entries expire lazily: a stale entry stays in the map until a read touches
// it or capacity eviction removes it. Capacity eviction is eager and drops
// the oldest-inserted entry, not the least recently used one. Fetch failures
// are never cached; every waiter sees the error and the next call starts
// fresh.
package tripcache
