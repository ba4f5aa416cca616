// Package future provides a write-once result handle shared by many readers.
package future

import (
	"context"
	"sync"
)

// Future is a handle to a value that is either already computed or still
// being computed by exactly one producer. Any number of goroutines may wait
// on it; all of them observe the same (value, error) pair.
//
// Concurrency notes:
//   - Publishing (val, err) happens-before close(done), so reads after
//     <-done observe the final values.
//   - Cancelling ctx in Wait unblocks only that waiter; it does NOT cancel
//     the producer.
type Future[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
}

// Resolver publishes the result of a Future. Only the first call has an
// effect; later calls are ignored.
type Resolver[V any] func(v V, err error)

// New returns an unresolved Future and the function that resolves it.
// Only the producer holds the Resolver, so readers cannot publish into it.
func New[V any]() (*Future[V], Resolver[V]) {
	f := &Future[V]{done: make(chan struct{})}
	var once sync.Once
	return f, func(v V, err error) {
		once.Do(func() {
			f.val, f.err = v, err
			close(f.done)
		})
	}
}

// Done returns a channel that is closed once the result is available.
func (f *Future[V]) Done() <-chan struct{} { return f.done }

// Wait blocks until the result is published or ctx is done.
// If ctx ends first, Wait returns ctx.Err() while the producer keeps running.
func (f *Future[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Peek returns the result without blocking. ok is false while the
// producer is still running.
func (f *Future[V]) Peek() (v V, err error, ok bool) {
	select {
	case <-f.done:
		return f.val, f.err, true
	default:
		return v, nil, false
	}
}
