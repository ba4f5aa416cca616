package cache

import (
	"context"
	"sync"
	"time"

	"github.com/IvanBrykalov/swrcache/internal/pq"
	"github.com/IvanBrykalov/swrcache/internal/util"
)

// cache is the single-table implementation of Cache.
// One mutex guards the table and the index; it is held for each
// non-blocking step and never while a fetch runs.
type cache[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu    sync.Mutex
	table map[K]*entry[K, V]
	index *pq.Queue[*entry[K, V]] // min = next eviction candidate

	duration  int64 // hard TTL, ns
	untilCold int64 // soft TTL, ns
	opt       Options[K]

	// ---- counters (separate cache lines to avoid false sharing) ----
	_           util.CacheLinePad
	hits        util.Counter
	misses      util.Counter
	stale       util.Counter
	fetches     util.Counter
	bgFetches   util.Counter
	fetchErrors util.Counter
	evictions   util.Counter
}

// New constructs a cache with the provided Options.
// It panics if the Options do not pass Validate.
func New[K comparable, V any](opt Options[K]) Cache[K, V] {
	if err := opt.Validate(); err != nil {
		panic(err.Error())
	}
	opt = opt.withDefaults()

	// return pointer-to-impl as the interface (avoids unexported-return lint)
	return &cache[K, V]{
		table:     make(map[K]*entry[K, V]),
		index:     pq.New(expiresBefore[K, V], setEntryIndex[K, V]),
		duration:  int64(opt.Duration),
		untilCold: int64(opt.DurationUntilCold),
		opt:       opt,
	}
}

// ---- Cache[K,V] implementation ----

// Get returns the value for k, waiting for an in-flight fetch if needed.
func (c *cache[K, V]) Get(ctx context.Context, k K, fetch FetchFunc[K, V]) (V, error) {
	return c.lookup(ctx, k, fetch).Wait(ctx)
}

// GetFuture returns the handle for k without waiting.
func (c *cache[K, V]) GetFuture(k K, fetch FetchFunc[K, V]) *Future[V] {
	return c.lookup(context.Background(), k, fetch)
}

// Delete marks k invalid, drops it from the table and the index, then
// runs an eviction pass.
func (c *cache[K, V]) Delete(k K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.table[k]
	if !ok {
		return
	}
	e.invalid = true
	delete(c.table, k)
	c.index.Remove(e.index)
	c.reportEvict(k, EvictDeleted)
	c.evictLocked(c.now())
}

// Refresh runs a lazy-eviction pass at the current time.
func (c *cache[K, V]) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(c.now())
}

// Clear drops the table and the index.
func (c *cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index.Clear()
	c.table = make(map[K]*entry[K, V])
	c.opt.Metrics.Size(0)
}

// Len returns the number of entries in the ordering index.
func (c *cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Len()
}

// Has reports table membership without touching the entry.
func (c *cache[K, V]) Has(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.table[k]
	return ok
}

// Stats returns a snapshot of the counters.
func (c *cache[K, V]) Stats() Stats {
	return Stats{
		Hits:              c.hits.Load(),
		Misses:            c.misses.Load(),
		Stale:             c.stale.Load(),
		Fetches:           c.fetches.Load(),
		BackgroundFetches: c.bgFetches.Load(),
		FetchErrors:       c.fetchErrors.Load(),
		Evictions:         c.evictions.Load(),
		Entries:           c.Len(),
	}
}

// -------------------- internals --------------------

// lookup classifies the entry for k and returns its current value handle.
func (c *cache[K, V]) lookup(ctx context.Context, k K, fetch FetchFunc[K, V]) *Future[V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e := c.table[k]
	switch {
	case e == nil || !c.liveLocked(e, now):
		c.misses.Inc()
		c.opt.Metrics.Miss()
		e = c.refreshEntry(ctx, e, k, fetch, now)
	case c.coldAt(e.createdAt, now):
		c.stale.Inc()
		c.opt.Metrics.Stale()
		c.refreshEntryCold(ctx, e, fetch, now)
	default:
		c.hits.Inc()
		c.opt.Metrics.Hit()
	}
	return e.value
}

func (c *cache[K, V]) liveLocked(e *entry[K, V], now int64) bool {
	return !e.invalid && !c.expiredAt(e.createdAt, now)
}

// Ages are compared instead of deadlines: createdAt+duration overflows
// for durations near math.MaxInt64.
func (c *cache[K, V]) expiredAt(createdAt, now int64) bool {
	return now-createdAt >= c.duration
}

func (c *cache[K, V]) coldAt(createdAt, now int64) bool {
	return now-createdAt >= c.untilCold
}

func (c *cache[K, V]) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

// attachedLocked reports whether e is still the table's entry for its key.
// Deleted and cleared entries are detached even while their fetches run.
func (c *cache[K, V]) attachedLocked(e *entry[K, V]) bool {
	return c.table[e.key] == e
}

// evictLocked pops index entries while they are invalid or expired.
// Cost is proportional to the number of entries removed.
func (c *cache[K, V]) evictLocked(now int64) {
	for {
		e, ok := c.index.Peek()
		if !ok || c.liveLocked(e, now) {
			break
		}
		c.index.Pop()

		// Report only entries the table still maps.
		if !c.attachedLocked(e) {
			continue
		}
		delete(c.table, e.key)
		reason := EvictExpired
		if e.invalid {
			reason = EvictInvalid
		}
		c.reportEvict(e.key, reason)
	}
	c.opt.Metrics.Size(c.index.Len())
}

// reportEvict updates counters and calls OnEvict.
func (c *cache[K, V]) reportEvict(k K, reason EvictReason) {
	c.evictions.Inc()
	c.opt.Metrics.Evict(reason)
	if c.opt.Logger.IsTrace() {
		c.opt.Logger.Trace("entry evicted", "key", k, "reason", reason.String())
	}
	if cb := c.opt.OnEvict; cb != nil {
		cb(k, reason)
	}
}
