package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/swrcache/cache"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

var errFetch = errors.New("synthetic fetch failure")

// Zipf skew of the key distribution (s > 1).
const (
	zipfS = 1.1
	zipfV = 1.0
)

type workload struct {
	keys     int
	workers  int
	latency  time.Duration
	failRate float64
	seed     int64

	failures *lockedRand // set by drive
}

// lockedRand is a seeded source shared by concurrently running fetches.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

type result struct {
	ops     uint64
	errors  uint64
	elapsed time.Duration
}

func (w workload) validate() error {
	switch {
	case w.keys < 1:
		return fmt.Errorf("keys must be positive, got %d", w.keys)
	case w.workers < 1:
		return fmt.Errorf("workers must be positive, got %d", w.workers)
	case w.latency < 0:
		return fmt.Errorf("fetch latency must not be negative, got %v", w.latency)
	case w.failRate < 0 || w.failRate > 1:
		return fmt.Errorf("fail rate must be within [0, 1], got %v", w.failRate)
	}
	return nil
}

// fetch simulates a slow backend. It ignores ctx: the cache never cancels it.
func (w workload) fetch(_ context.Context, k string) (string, error) {
	if w.latency > 0 {
		time.Sleep(w.latency)
	}
	if w.failRate > 0 && w.failures.Float64() < w.failRate {
		return "", errFetch
	}
	return "v:" + k, nil
}

// drive runs Get from every worker until ctx ends.
func (w workload) drive(ctx context.Context, c cache.Cache[string, string]) (result, error) {
	var ops, fails atomic.Uint64
	start := time.Now()
	w.failures = newLockedRand(w.seed)

	g, gctx := errgroup.WithContext(ctx)
	for id := 0; id < w.workers; id++ {
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			r := rand.New(rand.NewSource(w.seed + int64(id)*9973))
			zipf := rand.NewZipf(r, zipfS, zipfV, uint64(w.keys-1))

			for gctx.Err() == nil {
				k := "k:" + strconv.FormatUint(zipf.Uint64(), 10)
				v, err := c.Get(gctx, k, w.fetch)
				switch {
				case err == nil:
					if v != "v:"+k {
						return fmt.Errorf("key %q served %q", k, v)
					}
				case errors.Is(err, errFetch):
					fails.Add(1)
				case gctx.Err() != nil:
					return nil
				default:
					return err
				}
				ops.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	return result{ops: ops.Load(), errors: fails.Load(), elapsed: time.Since(start)}, err
}

func (r result) print(out io.Writer, st cache.Stats) {
	perSec := 0.0
	if r.elapsed > 0 {
		perSec = float64(r.ops) / r.elapsed.Seconds()
	}
	lookups := st.Hits + st.Stale + st.Misses
	hitRate := 0.0
	if lookups > 0 {
		hitRate = float64(st.Hits+st.Stale) / float64(lookups) * 100
	}

	fmt.Fprintf(out, "ops=%s (%s ops/s) in %v  fetch errors=%s\n",
		humanize.Comma(int64(r.ops)), humanize.CommafWithDigits(perSec, 0),
		r.elapsed.Round(time.Millisecond), humanize.Comma(int64(r.errors)))
	fmt.Fprintf(out, "hits=%s  stale=%s  misses=%s  hit-rate=%.2f%%\n",
		humanize.Comma(int64(st.Hits)), humanize.Comma(int64(st.Stale)),
		humanize.Comma(int64(st.Misses)), hitRate)
	fmt.Fprintf(out, "fetches=%s  background=%s  evictions=%s  entries=%s\n",
		humanize.Comma(int64(st.Fetches)), humanize.Comma(int64(st.BackgroundFetches)),
		humanize.Comma(int64(st.Evictions)), humanize.Comma(int64(st.Entries)))
}
