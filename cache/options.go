package cache

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultDuration is the hard TTL used when Options.Duration is zero.
const DefaultDuration = 30 * time.Second

// ErrInvalidOptions is wrapped by every error returned from Options.Validate.
var ErrInvalidOptions = errors.New("cache: invalid options")

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictExpired: the entry outlived the hard TTL (lazy eviction).
	EvictExpired EvictReason = iota
	// EvictInvalid: the entry's primary fetch failed.
	EvictInvalid
	// EvictDeleted: removed by an explicit Delete.
	EvictDeleted
)

// String returns a stable label for the reason.
func (r EvictReason) String() string {
	switch r {
	case EvictExpired:
		return "expired"
	case EvictInvalid:
		return "invalid"
	case EvictDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("EvictReason(%d)", int(r))
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
// Hooks are called under the cache lock; keep them cheap.
type Metrics interface {
	// Hit is a lookup served from a hot entry.
	Hit()
	// Miss is a lookup that required a forced refresh (missing, invalid or expired).
	Miss()
	// Stale is a lookup served from a cold entry.
	Stale()
	// Fetch reports a fetch being started.
	Fetch(background bool)
	// FetchError reports a failed fetch.
	FetchError(background bool)
	Evict(reason EvictReason)
	Size(entries int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures the cache behavior. Zero values are safe;
// defaults are applied in New():
//   - Duration == 0          => DefaultDuration
//   - DurationUntilCold == 0 => round(Duration * 2/3)
//   - nil Clock              => time.Now()
//   - nil Metrics            => NoopMetrics
//   - nil Logger             => hclog.NewNullLogger()
type Options[K comparable] struct {
	// Duration is the hard TTL: an entry older than this is never served.
	Duration time.Duration
	// DurationUntilCold is the soft TTL: an entry older than this is still
	// served but triggers one background refresh. Must be <= Duration.
	DurationUntilCold time.Duration

	// Clock allows overriding the time source (tests). Nil => time.Now().
	Clock Clock

	// Observability
	Metrics Metrics
	Logger  hclog.Logger
	// OnEvict is called under the cache lock for every removed entry;
	// keep callbacks lightweight and do not call back into the cache.
	OnEvict func(k K, reason EvictReason)
}

// NewOptions is the shorthand for Options{Duration: d}.
func NewOptions[K comparable](d time.Duration) Options[K] {
	return Options[K]{Duration: d}
}

// Validate reports whether the durations are usable.
func (o Options[K]) Validate() error {
	return CheckDurations(o.Duration, o.DurationUntilCold)
}

// CheckDurations validates a hard/soft TTL pair as it would appear in
// Options. Zero values stand for the defaults.
func CheckDurations(duration, untilCold time.Duration) error {
	if duration < 0 {
		return fmt.Errorf("%w: negative duration %v", ErrInvalidOptions, duration)
	}
	if untilCold < 0 {
		return fmt.Errorf("%w: negative duration until cold %v", ErrInvalidOptions, untilCold)
	}
	d, cold := resolveDurations(duration, untilCold)
	if cold > d {
		return fmt.Errorf("%w: duration until cold %v exceeds duration %v", ErrInvalidOptions, cold, d)
	}
	return nil
}

// resolveDurations applies the zero-value defaults.
func resolveDurations(duration, untilCold time.Duration) (time.Duration, time.Duration) {
	if duration == 0 {
		duration = DefaultDuration
	}
	if untilCold == 0 {
		untilCold = time.Duration(math.Round(float64(duration) * 2 / 3))
	}
	return duration, untilCold
}

// withDefaults returns a copy of o with every zero field filled in.
func (o Options[K]) withDefaults() Options[K] {
	o.Duration, o.DurationUntilCold = resolveDurations(o.Duration, o.DurationUntilCold)
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = hclog.NewNullLogger()
	}
	return o
}
