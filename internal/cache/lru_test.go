package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newClockedCache[T any](maxSize int, ttl time.Duration, sliding bool) (*LRUCache[T], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](maxSize, ttl)
	c.sliding = sliding
	c.now = clock.now
	return c, clock
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Set("key4", "value4")

	if _, found := c.Get("key1"); found {
		t.Error("key1 should have been evicted")
	}
	for _, k := range []string{"key2", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
}

func TestLRUCacheTTLExpiration(t *testing.T) {
	c, clock := newClockedCache[string](100, time.Minute, false)

	c.Set("key1", "value1")
	if _, found := c.Get("key1"); !found {
		t.Fatal("key1 should exist immediately")
	}

	clock.advance(61 * time.Second)
	if _, found := c.Get("key1"); found {
		t.Error("key1 should have expired")
	}
}

func TestSlidingExpirationExtendsOnUse(t *testing.T) {
	c, clock := newClockedCache[string](100, time.Minute, true)
	c.Set("session", "ws")

	for i := 0; i < 5; i++ {
		clock.advance(50 * time.Second)
		if _, found := c.Get("session"); !found {
			t.Fatalf("entry should stay alive while in use (step %d)", i)
		}
	}

	clock.advance(2 * time.Minute)
	if _, found := c.Get("session"); found {
		t.Fatal("idle entry should expire")
	}
}

func TestGetOrCreate(t *testing.T) {
	c := NewLRUCache[*int](10, time.Hour)
	calls := 0
	create := func() *int { calls++; v := calls; return &v }

	first := c.GetOrCreate("k", create)
	second := c.GetOrCreate("k", create)
	if first != second || calls != 1 {
		t.Fatalf("expected a single creation, got %d calls", calls)
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c, clock := newClockedCache[string](100, time.Minute, false)
	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	clock.advance(2 * time.Minute)

	if removed := c.CleanExpired(); removed != 3 {
		t.Errorf("Expected 3 items cleaned, got %d", removed)
	}
	if c.Size() != 0 {
		t.Errorf("Expected empty cache, got %d", c.Size())
	}
}

func TestManagerSweep(t *testing.T) {
	a, clock := newClockedCache[string](10, time.Minute, false)
	a.Set("x", "1")
	clock.advance(time.Hour)

	m := NewManager(nil)
	m.Register("a", a)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
}

func BenchmarkLRUCache(b *testing.B) {
	c := NewLRUCache[[]byte](1000, time.Hour)
	payload := []byte("%PDF-1.3")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%10 == 0 {
			c.Set("bench-key", payload)
		} else {
			c.Get("bench-key")
		}
	}
}
