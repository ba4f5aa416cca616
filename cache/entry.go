package cache

import "github.com/IvanBrykalov/swrcache/internal/future"

// entry is the per-key record owned by the cache. All fields are guarded
// by the cache mutex.
type entry[K comparable, V any] struct {
	key K

	// createdAt is when the currently served value was produced (UnixNano).
	// It moves forward on every promotion, not on creation of the record.
	createdAt int64

	// invalid marks a value known to be bad (failed fetch or Delete).
	// Invalid entries sort first in the index and are never served again.
	invalid bool

	// value is the handle currently handed out by Get; it may still be in flight.
	value *future.Future[V]

	// pending is the single in-flight background refresh, if any.
	pending *flight[V]

	// index is the entry's position in the ordering index (-1 = detached).
	index int
}

// flight is one started fetch together with the time it was started.
type flight[V any] struct {
	fut        *future.Future[V]
	createdAt  int64
	background bool
}

// expiresBefore orders entries for lazy eviction: invalid entries first,
// then valid ones by ascending createdAt.
func expiresBefore[K comparable, V any](a, b *entry[K, V]) bool {
	if a.invalid != b.invalid {
		return a.invalid
	}
	return a.createdAt < b.createdAt
}

func setEntryIndex[K comparable, V any](e *entry[K, V], i int) { e.index = i }
