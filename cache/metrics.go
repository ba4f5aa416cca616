package cache

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is safe for concurrent use and intended as the default when
// no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()              {}
func (NoopMetrics) Miss()             {}
func (NoopMetrics) Stale()            {}
func (NoopMetrics) Fetch(bool)        {}
func (NoopMetrics) FetchError(bool)   {}
func (NoopMetrics) Evict(EvictReason) {}
func (NoopMetrics) Size(int)          {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}

// Stats is a point-in-time snapshot of the cache counters.
type Stats struct {
	Hits              uint64 // lookups served hot
	Misses            uint64 // lookups that forced a refresh
	Stale             uint64 // lookups served cold
	Fetches           uint64 // primary fetches started
	BackgroundFetches uint64 // cold refreshes started
	FetchErrors       uint64 // failed fetches of either kind
	Evictions         uint64 // entries reclaimed, deletes included
	Entries           int    // entries in the ordering index
}
