package main

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/IvanBrykalov/swrcache/cache"
	"github.com/google/go-cmp/cmp"
)

func TestWorkload_Validate(t *testing.T) {
	t.Parallel()

	ok := workload{keys: 10, workers: 2}
	if err := ok.validate(); err != nil {
		t.Fatalf("valid workload rejected: %v", err)
	}
	for _, w := range []workload{
		{keys: 0, workers: 1},
		{keys: 1, workers: 0},
		{keys: 1, workers: 1, latency: -time.Second},
		{keys: 1, workers: 1, failRate: 1.5},
	} {
		if err := w.validate(); err == nil {
			t.Fatalf("want error for %+v", w)
		}
	}
}

func TestWorkload_Drive(t *testing.T) {
	t.Parallel()

	c := cache.New[string, string](cache.Options[string]{
		Duration:          20 * time.Millisecond,
		DurationUntilCold: 5 * time.Millisecond,
	})
	w := workload{keys: 64, workers: 4, latency: time.Millisecond, failRate: 0.2, seed: 1}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	res, err := w.drive(ctx, c)
	if err != nil {
		t.Fatalf("drive: %v", err)
	}
	if res.ops == 0 {
		t.Fatal("no operations completed")
	}

	st := c.Stats()
	if st.Fetches == 0 || st.Hits+st.Stale == 0 {
		t.Fatalf("expected fetches and cache hits, got %+v", st)
	}

	var out bytes.Buffer
	res.print(&out, st)
	for _, want := range []string{"ops=", "hit-rate=", "fetches="} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("report misses %q:\n%s", want, out.String())
		}
	}
}

// The same seed yields the same sequence of synthetic failures.
func TestWorkload_FailuresFollowSeed(t *testing.T) {
	t.Parallel()

	outcomes := func(seed int64) []bool {
		w := workload{failRate: 0.5, failures: newLockedRand(seed)}
		var failed []bool
		for i := 0; i < 64; i++ {
			_, err := w.fetch(context.Background(), "k")
			failed = append(failed, err != nil)
		}
		return failed
	}
	first, second := outcomes(42), outcomes(42)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("failure sequence differs for one seed (-first +second):\n%s", diff)
	}
	if !slices.Contains(first, true) || !slices.Contains(first, false) {
		t.Fatalf("want a mix of failures and successes, got %v", first)
	}
}

func TestCommand_RejectsBadSettings(t *testing.T) {
	t.Parallel()

	args := []string{"bench", "--http", "", "--run", "10ms", "--duration", "1s", "--cold", "2s"}
	if err := newCommand().Run(context.Background(), args); err == nil {
		t.Fatal("want error for cold > duration")
	}
	args = []string{"bench", "--http", "", "--run", "10ms", "--log-level", "loud"}
	if err := newCommand().Run(context.Background(), args); err == nil {
		t.Fatal("want error for unknown log level")
	}
}
