package cache

import (
	"context"
	"testing"
	"time"

	"budgetcast/internal/core"
	"budgetcast/internal/sheets/memory"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestCache(maxSize int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](maxSize, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("a = %q, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("size = %d", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	clock.t = clock.t.Add(59 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a expired early")
	}
	clock.t = clock.t.Add(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should expire after ttl")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired removed %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("size = %d", c.Size())
	}
}

func TestLRUCache_ZeroTTLNeverHits(t *testing.T) {
	c, _ := newTestCache(1, 0)
	c.Set("a", "1")
	if _, ok := c.Get("a"); ok {
		t.Fatal("zero ttl should disable caching")
	}
}

func TestManager_CleanAllAndStop(t *testing.T) {
	c, clock := newTestCache(10, time.Second)
	c.Set("a", "1")
	clock.t = clock.t.Add(time.Hour)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanAll(); n != 1 {
		t.Fatalf("CleanAll = %d", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

type countingReader struct {
	*memory.Store
	accountReads int
}

func (c *countingReader) ListAccounts(ctx context.Context) ([]core.AccountRecord, error) {
	c.accountReads++
	return c.Store.ListAccounts(ctx)
}

func TestRecordReader_CachesAndCopies(t *testing.T) {
	src := &countingReader{Store: memory.New(core.Records{
		Accounts: []core.AccountRecord{{AccountName: "Checking", Balance: "1", Type: "checking"}},
	})}
	r := NewRecordReader(src, time.Minute)
	ctx := context.Background()

	first, err := r.ListAccounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	first[0].AccountName = "mutated"

	second, _ := r.ListAccounts(ctx)
	if second[0].AccountName != "Checking" {
		t.Fatal("cached rows were mutated through a returned slice")
	}
	if src.accountReads != 1 {
		t.Fatalf("source read %d times, want 1", src.accountReads)
	}

	r.Invalidate()
	r.ListAccounts(ctx)
	if src.accountReads != 2 {
		t.Fatalf("source read %d times after invalidate, want 2", src.accountReads)
	}
	if len(r.Cleaners()) != 2 {
		t.Error("expected two cleaners")
	}
}
