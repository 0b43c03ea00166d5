// Package trips defines the per-trip detail payload the map renders (ordered
// stop-time records with scheduled/predicted times, delays and schedule
// relationship) and a client that fetches it from a GTFS-RT TripUpdates
// backend through the resilience layer.
package trips
