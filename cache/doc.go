// Package cache provides the expiring cache pool used by capability
// implementations to avoid redundant upstream lookups.
//
// A Pool holds entries for one or more namespaces. Each namespace has its
// own TTL and key bucketing, while capacity and least-recently-used
// eviction are shared across all of them. Entries carry their creation and
// expiry times so callers can ask NeedsRefresh whether a still-valid value
// should be refreshed in the background.
//
// Loader layers read-through loading with request coalescing on top of a
// Pool, and Janitor sweeps expired entries on an interval.
package cache
