package cache

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// A mixed workload of concurrent Get/Delete/Refresh/Has on random keys with
// short TTLs and occasionally failing fetches.
// Should pass under `-race` without detector reports.
func TestRace_Basic(t *testing.T) {
	c := New[string, []byte](Options[string]{
		Duration:          20 * time.Millisecond,
		DurationUntilCold: 5 * time.Millisecond,
	})

	errFlaky := errors.New("flaky")
	fetch := func(_ context.Context, k string) ([]byte, error) {
		if strings.HasSuffix(k, "7") {
			return nil, errFlaky
		}
		return []byte(k), nil
	}

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 512
	deadline := time.Now().Add(time.Second)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			ctx := context.Background()
			for time.Now().Before(deadline) {
				k := "k:" + strconv.Itoa(r.Intn(keyspace))
				switch r.Intn(100) {
				case 0, 1, 2, 3, 4: // ~5%: Delete
					c.Delete(k)
				case 5: // ~1%: Refresh
					c.Refresh()
				case 6, 7, 8, 9: // ~4%: Has
					c.Has(k)
				default: // ~90%: Get
					v, err := c.Get(ctx, k, fetch)
					if err == nil && string(v) != k {
						t.Errorf("key %q served %q", k, v)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	// Everything alive must be unexpired once a pass has run.
	time.Sleep(30 * time.Millisecond)
	c.Refresh()
	if n := c.Len(); n != 0 {
		t.Fatalf("want empty cache after expiry, got %d", n)
	}
}

// One hundred goroutines call Get on the same key concurrently.
// The fetch should run at most once (single-flight).
func TestRace_Get(t *testing.T) {
	var calls int64

	c := New[string, string](Options[string]{Duration: time.Minute})
	fetch := func(_ context.Context, k string) (string, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(2 * time.Millisecond) // simulate I/O
		return "v:" + k, nil
	}

	const goroutines = 100
	key := "same-key"

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := c.Get(context.Background(), key, fetch)
			if err != nil {
				t.Errorf("Get error: %v", err)
				return
			}
			if v != "v:"+key {
				t.Errorf("unexpected value: %q", v)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("fetch should run once, got %d", got)
	}

	// Subsequent call should be a pure cache hit.
	if v, err := c.Get(context.Background(), key, fetch); err != nil || v != "v:"+key {
		t.Fatalf("second Get failed: v=%q err=%v", v, err)
	}
}
