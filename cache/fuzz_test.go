package cache

import (
	"context"
	"strings"
	"testing"
)

// Fuzz basic Get/Has/Delete semantics under arbitrary string inputs.
// Guards against panics and ensures core invariants hold.
// NOTE: We cap key/value lengths to avoid pathological memory usage
// during fuzzing (this does not weaken the invariants we check).
func FuzzCache_GetHasDelete(f *testing.F) {
	// Seed corpus: empty, ASCII, Unicode, long strings.
	f.Add("", "")
	f.Add("a", "1")
	f.Add("b", "2")
	f.Add("αβγ", "δ")
	f.Add("emoji🙂", "🙂🙂")
	f.Add("long", strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, k, v string) {
		// Cap lengths to keep memory bounded during fuzzing.
		const limit = 1 << 12 // 4096
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}

		ctx := context.Background()
		c := New[string, string](Options[string]{})
		calls := 0
		fetch := func(context.Context, string) (string, error) {
			calls++
			return v, nil
		}

		// Get -> fetched value, then served from cache.
		for i := 0; i < 2; i++ {
			got, err := c.Get(ctx, k, fetch)
			if err != nil || got != v {
				t.Fatalf("Get #%d: want %q, got %q err=%v", i, v, got, err)
			}
		}
		if calls != 1 {
			t.Fatalf("fetch must run once, got %d", calls)
		}
		if !c.Has(k) || c.Len() != 1 {
			t.Fatalf("after Get: has=%v len=%d", c.Has(k), c.Len())
		}

		// Delete must remove immediately; the next Get fetches again.
		c.Delete(k)
		if c.Has(k) || c.Len() != 0 {
			t.Fatalf("after Delete: has=%v len=%d", c.Has(k), c.Len())
		}
		if _, err := c.Get(ctx, k, fetch); err != nil || calls != 2 {
			t.Fatalf("Get after Delete: calls=%d err=%v", calls, err)
		}
	})
}
