package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/IvanBrykalov/swrcache/internal/future"
)

// ErrFetchPanic is wrapped into the error of a fetch that panicked.
var ErrFetchPanic = errors.New("cache: fetch panicked")

// refreshEntry produces a new authoritative value for k.
// A still-useful background fetch is promoted instead of starting another one.
// Caller holds c.mu.
func (c *cache[K, V]) refreshEntry(ctx context.Context, old *entry[K, V], k K, fetch FetchFunc[K, V], now int64) *entry[K, V] {
	if old == nil {
		e := &entry[K, V]{key: k, createdAt: now, index: -1}
		e.value = c.launch(ctx, e, fetch, now, false).fut
		c.table[k] = e
		c.index.Push(e)
		c.evictLocked(now)
		return e
	}

	e := old
	if p := e.pending; p != nil && !c.expiredAt(p.createdAt, now) {
		// Ride the in-flight refresh rather than fetching again.
		e.createdAt = p.createdAt
		e.value = p.fut
		e.pending = nil
		p.background = false // it now backs the served value
		if c.coldAt(e.createdAt, now) {
			c.refreshEntryCold(ctx, e, fetch, now)
		}
	} else {
		e.pending = nil
		e.createdAt = now
		e.value = c.launch(ctx, e, fetch, now, false).fut
	}
	e.invalid = false
	c.index.Fix(e.index)
	c.evictLocked(now)
	return e
}

// refreshEntryCold starts a background refresh unless one is running.
// Caller holds c.mu.
func (c *cache[K, V]) refreshEntryCold(ctx context.Context, e *entry[K, V], fetch FetchFunc[K, V], now int64) {
	if e.pending != nil {
		return
	}
	e.pending = c.launch(ctx, e, fetch, now, true)
}

// launch starts fetch for e in a new goroutine. The returned flight's
// future resolves only after settle has applied the result to e.
// Caller holds c.mu.
func (c *cache[K, V]) launch(ctx context.Context, e *entry[K, V], fetch FetchFunc[K, V], now int64, background bool) *flight[V] {
	fut, resolve := future.New[V]()
	f := &flight[V]{fut: fut, createdAt: now, background: background}

	if background {
		c.bgFetches.Inc()
	} else {
		c.fetches.Inc()
	}
	c.opt.Metrics.Fetch(background)

	fctx := context.WithoutCancel(ctx)
	k := e.key
	go func() {
		v, err := runFetch(fctx, fetch, k)
		c.settle(e, f, v, err)
		resolve(v, err)
	}()
	return f
}

// settle applies a finished fetch to its entry according to the role the
// flight holds now: the served value, the pending refresh, or neither.
func (c *cache[K, V]) settle(e *entry[K, V], f *flight[V], v V, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.fetchErrors.Inc()
		c.opt.Metrics.FetchError(f.background)
	}

	switch {
	case e.value == f.fut:
		if err == nil {
			return
		}
		// The served value is bad: never hand it out again.
		e.invalid = true
		c.index.Fix(e.index)
		c.opt.Logger.Debug("fetch failed", "key", e.key, "error", err)

	case e.pending == f:
		e.pending = nil
		if err != nil {
			// The stale value stays in service.
			c.opt.Logger.Warn("background refresh failed", "key", e.key, "error", err)
			return
		}
		if e.createdAt >= f.createdAt || !c.attachedLocked(e) {
			// Superseded by a newer value, or deleted meanwhile: discard.
			return
		}
		e.value = f.fut
		e.createdAt = f.createdAt
		e.invalid = false
		c.index.Fix(e.index)
		c.evictLocked(c.now())

	default:
		// Replaced while in flight; the result only reaches its own waiters.
	}
}

// runFetch calls fetch, converting a panic into an error.
func runFetch[K comparable, V any](ctx context.Context, fetch FetchFunc[K, V], k K) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero V
			v, err = zero, fmt.Errorf("%w: %v", ErrFetchPanic, r)
		}
	}()
	return fetch(ctx, k)
}
