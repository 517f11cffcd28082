// Package cache provides the expiring-entry primitive shared by every TTL-gated
// cache in the daemon (registry snapshots, per-server status entries).
// Centralizing the freshness check keeps invalidation semantics identical everywhere.
package cache

import (
	"time"
)

// Entry holds a value together with the time it was last refreshed and a TTL.
// The zero time marks an entry that has never been set (or was invalidated),
// which is always treated as expired.
// Entry is not safe for concurrent use; owners guard it with their own locks.
type Entry[T any] struct {
	value       T
	refreshedAt time.Time
	ttl         time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewEntry creates an empty entry with the given TTL.
// A non-positive TTL means the entry expires immediately and every read misses.
func NewEntry[T any](ttl time.Duration) *Entry[T] {
	return &Entry[T]{
		ttl: ttl,
		now: time.Now,
	}
}

// Set stores a value and stamps it as freshly refreshed.
func (e *Entry[T]) Set(value T) {
	e.value = value
	e.refreshedAt = e.now()
}

// Get returns the stored value and whether it is still fresh.
// Expired or never-set values must not be trusted by callers.
func (e *Entry[T]) Get() (T, bool) {
	if !e.Fresh() {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Value returns the stored value regardless of freshness.
// Callers needing the freshness guarantee should use Get.
func (e *Entry[T]) Value() T {
	return e.value
}

// Fresh reports whether the entry was set and has not outlived its TTL.
func (e *Entry[T]) Fresh() bool {
	if e.refreshedAt.IsZero() {
		return false
	}
	return e.now().Sub(e.refreshedAt) < e.ttl
}

// RefreshedAt returns the time the entry was last set, or the zero time.
func (e *Entry[T]) RefreshedAt() time.Time {
	return e.refreshedAt
}

// Invalidate marks the entry as expired, forcing re-verification on next read.
// The stored value is retained for callers that want the stale view via Value.
func (e *Entry[T]) Invalidate() {
	e.refreshedAt = time.Time{}
}

// SetClock replaces the time source. It exists for tests.
func (e *Entry[T]) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}
