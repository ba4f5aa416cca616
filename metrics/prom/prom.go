// Package prom exports cache metrics to Prometheus.
package prom

import (
	"github.com/IvanBrykalov/swrcache/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements cache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	stale       prometheus.Counter
	fetches     *prometheus.CounterVec
	fetchErrors *prometheus.CounterVec
	evicts      *prometheus.CounterVec
	sizeEnt     prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}
	counterVec := func(name, help, label string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        name,
				Help:        help,
				ConstLabels: constLabels,
			},
			[]string{label},
		)
	}

	a := &Adapter{
		hits:        counter("hits_total", "Lookups served from a hot entry"),
		misses:      counter("misses_total", "Lookups that forced a refresh"),
		stale:       counter("stale_total", "Lookups served from a cold entry"),
		fetches:     counterVec("fetches_total", "Fetches started by kind", "kind"),
		fetchErrors: counterVec("fetch_errors_total", "Failed fetches by kind", "kind"),
		evicts:      counterVec("evictions_total", "Cache evictions by reason", "reason"),
		sizeEnt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of resident entries",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.stale, a.fetches, a.fetchErrors, a.evicts, a.sizeEnt)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Stale increments the stale-hit counter.
func (a *Adapter) Stale() { a.stale.Inc() }

// Fetch counts a started fetch, labelled primary or background.
func (a *Adapter) Fetch(background bool) { a.fetches.WithLabelValues(kind(background)).Inc() }

// FetchError counts a failed fetch, labelled primary or background.
func (a *Adapter) FetchError(background bool) {
	a.fetchErrors.WithLabelValues(kind(background)).Inc()
}

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(r.String()).Inc()
}

// Size updates the resident entries gauge.
func (a *Adapter) Size(entries int) { a.sizeEnt.Set(float64(entries)) }

func kind(background bool) string {
	if background {
		return "background"
	}
	return "primary"
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
