// Package cache memoizes the result of an expensive asynchronous computation
// per key, serving stale values while a refresh runs in the background.
//
// Design
//
//   - Single-flight: concurrent callers for the same key share one fetch.
//     Each entry holds at most one fetch behind its served value and at most
//     one background refresh (pending), so a third caller always reuses one
//     of the two existing handles.
//
//   - States: an entry younger than DurationUntilCold is hot and served as-is.
//     Between DurationUntilCold and Duration it is cold: still served, but the
//     first cold lookup starts one background refresh. At Duration it is
//     expired and never served; the next lookup forces a refresh, promoting
//     a still-fresh background fetch instead of starting another one.
//
//   - Storage: one map[K]*entry for lookups plus an indexed min-heap ordered
//     by (invalid first, then oldest createdAt). The heap head is always the
//     next eviction candidate.
//
//   - Eviction is lazy and purely time-based: Get, Delete and Refresh pop
//     heap entries while they are invalid or expired. Cost is proportional
//     to the number of removed entries, never to the table size. There is no
//     background sweeper, and no size or frequency based eviction.
//
//   - Errors: a failed primary fetch invalidates its entry before the error
//     reaches waiters, so the next Get starts fresh. A failed background
//     refresh only clears the pending marker; the stale value stays served.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Stale/Fetch/FetchError/Evict/Size
//     signals. By default NoopMetrics is used; plug the Prometheus adapter
//     from metrics/prom to export them.
//
// Basic usage
//
//	c := cache.New[string, *User](cache.Options[string]{
//	    Duration:          time.Minute,
//	    DurationUntilCold: 40 * time.Second,
//	})
//	u, err := c.Get(ctx, "42", func(ctx context.Context, id string) (*User, error) {
//	    return db.LoadUser(ctx, id)
//	})
//
// Non-blocking
//
//	f := c.GetFuture("42", load)
//	select {
//	case <-f.Done():
//	    u, err := f.Wait(ctx)
//	    _, _ = u, err
//	case <-time.After(50 * time.Millisecond):
//	    // still loading
//	}
//
// Thread-safety
//
// All methods on Cache are safe for concurrent use. A single mutex guards the
// table and heap and is never held while a fetch runs. Fetches are not
// cancelled by the cache; wrap the fetch function to apply a timeout.
package cache
