// Package memo memoizes functions with a private swrcache.
//
// The cache key is computed from the call arguments by a caller-supplied key
// function; the wrapped function runs at most once per key while a result
// is hot, and stale results are served while a background call refreshes them.
//
//	lookup := memo.Wrap(loadUser, func(id int64) int64 { return id },
//	    cache.NewOptions[int64](time.Minute))
//	u, err := lookup(ctx, 42)
package memo

import (
	"context"

	"github.com/IvanBrykalov/swrcache/cache"
)

// Memo is a function of one argument bound to its own cache.
type Memo[A any, K comparable, V any] struct {
	fn  func(context.Context, A) (V, error)
	key func(A) K
	c   cache.Cache[K, V]
}

// New wraps fn. key maps an argument to its cache key; arguments with the
// same key share one result.
func New[A any, K comparable, V any](
	fn func(context.Context, A) (V, error),
	key func(A) K,
	opt cache.Options[K],
) *Memo[A, K, V] {
	return &Memo[A, K, V]{fn: fn, key: key, c: cache.New[K, V](opt)}
}

// Call returns the memoized result of fn(ctx, a).
// The call that starts a computation supplies the argument passed to fn.
func (m *Memo[A, K, V]) Call(ctx context.Context, a A) (V, error) {
	return m.c.Get(ctx, m.key(a), func(ctx context.Context, _ K) (V, error) {
		return m.fn(ctx, a)
	})
}

// Forget drops the memoized result for a.
func (m *Memo[A, K, V]) Forget(a A) { m.c.Delete(m.key(a)) }

// Cache exposes the underlying cache (stats, Refresh, Clear).
func (m *Memo[A, K, V]) Cache() cache.Cache[K, V] { return m.c }

// Wrap is New(...).Call: a drop-in replacement for fn.
func Wrap[A any, K comparable, V any](
	fn func(context.Context, A) (V, error),
	key func(A) K,
	opt cache.Options[K],
) func(context.Context, A) (V, error) {
	return New(fn, key, opt).Call
}

// Wrap2 is Wrap for functions of two arguments.
func Wrap2[A, B any, K comparable, V any](
	fn func(context.Context, A, B) (V, error),
	key func(A, B) K,
	opt cache.Options[K],
) func(context.Context, A, B) (V, error) {
	m := New(
		func(ctx context.Context, p pair[A, B]) (V, error) { return fn(ctx, p.a, p.b) },
		func(p pair[A, B]) K { return key(p.a, p.b) },
		opt,
	)
	return func(ctx context.Context, a A, b B) (V, error) {
		return m.Call(ctx, pair[A, B]{a, b})
	}
}

// pair carries the arguments of a two-argument call.
type pair[A, B any] struct {
	a A
	b B
}
