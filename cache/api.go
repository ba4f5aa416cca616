package cache

import (
	"context"

	"github.com/IvanBrykalov/swrcache/internal/future"
)

// Future is a handle to a value that is resolved, being computed, or about
// to be computed. Every caller sharing a computation receives the same Future.
type Future[V any] = future.Future[V]

// FetchFunc computes the value for k. It runs in its own goroutine and is
// never cancelled by the cache: ctx carries the starting caller's values
// but not its cancellation. Callers needing a timeout must apply it inside.
type FetchFunc[K comparable, V any] func(ctx context.Context, k K) (V, error)

// Cache memoizes the result of an expensive asynchronous computation per key.
// All methods are safe for concurrent use by multiple goroutines.
//
// Entries move through three states relative to their age:
// hot (< DurationUntilCold, served as-is), cold (served, but one background
// refresh is started) and expired (>= Duration, never served).
type Cache[K comparable, V any] interface {
	// Get returns the value for k, starting at most one fetch per key.
	// The wait honors ctx; the fetch itself keeps running if ctx ends.
	Get(ctx context.Context, k K, fetch FetchFunc[K, V]) (V, error)

	// GetFuture is the non-blocking form of Get.
	GetFuture(k K, fetch FetchFunc[K, V]) *Future[V]

	// Delete invalidates and removes k. In-flight fetches for k still
	// complete, but their results are never served for k again.
	Delete(k K)

	// Refresh reclaims every invalid or expired entry now.
	Refresh()

	// Clear drops all entries.
	Clear()

	// Len returns the number of entries in the ordering index.
	Len() int

	// Has reports whether k is present. It neither refreshes nor evicts.
	Has(k K) bool

	// Stats returns a snapshot of the cache counters.
	Stats() Stats
}
