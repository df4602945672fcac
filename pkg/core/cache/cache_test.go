package cache

import (
	"errors"
	"testing"
	"time"
)

// clock is a manually advanced time source
type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func newTestCache(cfg Config) (*Cache[string, int], *clock) {
	clk := &clock{t: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}
	c := New[string, int](cfg)
	c.now = clk.now
	return c, clk
}

func TestGetSet(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())

	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache returned a value")
	}
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v; want 1, true", v, ok)
	}

	hits, misses, rate := c.Stats()
	if hits != 1 || misses != 1 || rate != 50 {
		t.Errorf("Stats() = %d, %d, %v", hits, misses, rate)
	}
}

func TestExpiration(t *testing.T) {
	c, clk := newTestCache(Config{TTL: time.Minute})

	c.Set("a", 1)
	c.SetWithTTL("b", 2, 0)

	clk.t = clk.t.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry returned")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Error("entry without TTL expired")
	}
}

func TestPrune(t *testing.T) {
	c, clk := newTestCache(Config{TTL: time.Minute})
	c.Set("a", 1)
	c.Set("b", 2)
	c.SetWithTTL("c", 3, time.Hour)

	clk.t = clk.t.Add(2 * time.Minute)
	if removed := c.Prune(); removed != 2 {
		t.Errorf("Prune() = %d, want 2", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestEvictsOldestAtCapacity(t *testing.T) {
	c, _ := newTestCache(Config{MaxItems: 2, TTL: time.Minute})

	c.SetWithTTL("short", 1, time.Second)
	c.SetWithTTL("long", 2, time.Hour)
	c.Set("new", 3)

	if _, ok := c.Get("short"); ok {
		t.Error("entry expiring first was not evicted")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}

	// overwriting an existing key does not evict
	c.Set("new", 4)
	if _, ok := c.Get("long"); !ok {
		t.Error("overwrite evicted another entry")
	}
}

func TestGetOrSet(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())
	calls := 0
	fn := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrSet("k", fn)
		if err != nil || v != 42 {
			t.Fatalf("GetOrSet() = %v, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}

	_, err := c.GetOrSet("bad", func() (int, error) { return 0, errors.New("boom") })
	if err == nil {
		t.Fatal("error not returned")
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("error result was cached")
	}
}

func TestClearAndDelete(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry returned")
	}
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() = %d after Clear", c.Size())
	}
}
