package translate

import (
	"fmt"
	"testing"
	"time"

	"github.com/mandika-app/mandika/pkg/lang"
)

var cacheEpoch = time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

func testResult(text string) Result {
	return Result{
		Original:   text,
		Translated: "अनुवाद of " + text,
		From:       lang.English,
		To:         lang.Hindi,
		Confidence: 0.9,
		CreatedAt:  cacheEpoch,
	}
}

func TestCacheGetPut(t *testing.T) {
	t.Parallel()
	c := NewCache(3)

	if _, ok := c.Get("missing", cacheEpoch); ok {
		t.Fatal("Get() on empty cache reported a hit")
	}

	c.Put("k1", testResult("one"), cacheEpoch)
	got, ok := c.Get("k1", cacheEpoch.Add(time.Second))
	if !ok {
		t.Fatal("Get() after Put() reported a miss")
	}
	if got.Original != "one" {
		t.Errorf("Get() Original = %q, want %q", got.Original, "one")
	}

	snap := c.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Snapshot() returned %d entries, want 1", len(snap))
	}
	if snap[0].UsageCount != 2 {
		t.Errorf("UsageCount after one hit = %d, want 2", snap[0].UsageCount)
	}
	if !snap[0].LastUsed.Equal(cacheEpoch.Add(time.Second)) {
		t.Errorf("LastUsed = %v, want refreshed to %v", snap[0].LastUsed, cacheEpoch.Add(time.Second))
	}
}

func TestCachePutReplacesExisting(t *testing.T) {
	t.Parallel()
	c := NewCache(3)

	c.Put("k1", testResult("old"), cacheEpoch)
	if evicted := c.Put("k1", testResult("new"), cacheEpoch.Add(time.Second)); evicted {
		t.Error("Put() on existing key reported an eviction")
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	got, _ := c.Get("k1", cacheEpoch.Add(2*time.Second))
	if got.Original != "new" {
		t.Errorf("Get() Original = %q, want the replacement %q", got.Original, "new")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()
	c := NewCache(3)

	c.Put("a", testResult("a"), cacheEpoch)
	c.Put("b", testResult("b"), cacheEpoch.Add(1*time.Second))
	c.Put("c", testResult("c"), cacheEpoch.Add(2*time.Second))

	// A hit on "a" makes "b" the oldest.
	c.Get("a", cacheEpoch.Add(3*time.Second))

	if evicted := c.Put("d", testResult("d"), cacheEpoch.Add(4*time.Second)); !evicted {
		t.Error("Put() at capacity did not report an eviction")
	}
	if c.Len() != 3 {
		t.Fatalf("Len() after eviction = %d, want 3", c.Len())
	}
	if _, ok := c.Get("b", cacheEpoch.Add(5*time.Second)); ok {
		t.Error("least recently used entry \"b\" survived the eviction")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key, cacheEpoch.Add(5*time.Second)); !ok {
			t.Errorf("entry %q was evicted, want \"b\" evicted only", key)
		}
	}
}

func TestCacheNeverExceedsCapacity(t *testing.T) {
	t.Parallel()
	c := NewCache(3)

	for i := range 10 {
		c.Put(fmt.Sprintf("k%d", i), testResult("x"), cacheEpoch.Add(time.Duration(i)*time.Second))
		if c.Len() > 3 {
			t.Fatalf("Len() = %d after insert %d, want at most 3", c.Len(), i)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d after 10 inserts, want 3", c.Len())
	}
}

func TestCacheSnapshotRestoreRoundTrip(t *testing.T) {
	t.Parallel()
	c := NewCache(5)
	c.Put("a", testResult("a"), cacheEpoch)
	c.Put("b", testResult("b"), cacheEpoch.Add(1*time.Second))
	c.Get("a", cacheEpoch.Add(2*time.Second))

	restored := NewCache(5)
	restored.Restore(c.Snapshot())

	if restored.Len() != c.Len() {
		t.Fatalf("restored Len() = %d, want %d", restored.Len(), c.Len())
	}
	want := c.Snapshot()
	got := restored.Snapshot()
	for i := range want {
		if got[i].Key != want[i].Key || got[i].UsageCount != want[i].UsageCount ||
			!got[i].LastUsed.Equal(want[i].LastUsed) {
			t.Errorf("snapshot entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCacheSnapshotOrderedOldestFirst(t *testing.T) {
	t.Parallel()
	c := NewCache(5)
	c.Put("newer", testResult("n"), cacheEpoch.Add(time.Hour))
	c.Put("older", testResult("o"), cacheEpoch)

	snap := c.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot() returned %d entries, want 2", len(snap))
	}
	if snap[0].Key != "older" || snap[1].Key != "newer" {
		t.Errorf("Snapshot() order = [%s, %s], want [older, newer]", snap[0].Key, snap[1].Key)
	}
}

func TestCacheRestoreEnforcesCapacity(t *testing.T) {
	t.Parallel()
	oversized := make([]Entry, 5)
	for i := range oversized {
		oversized[i] = Entry{
			Key:      fmt.Sprintf("k%d", i),
			Result:   testResult("x"),
			LastUsed: cacheEpoch.Add(time.Duration(i) * time.Second),
		}
	}

	c := NewCache(3)
	c.Restore(oversized)

	if c.Len() != 3 {
		t.Fatalf("Len() after oversized restore = %d, want 3", c.Len())
	}
	// The three most recently used records survive.
	for _, key := range []string{"k2", "k3", "k4"} {
		if _, ok := c.Get(key, cacheEpoch.Add(time.Hour)); !ok {
			t.Errorf("entry %q missing after restore, want the newest three kept", key)
		}
	}
}

func TestNewCacheDefaultsCapacity(t *testing.T) {
	t.Parallel()
	if got := NewCache(0).Capacity(); got != DefaultCapacity {
		t.Errorf("NewCache(0).Capacity() = %d, want %d", got, DefaultCapacity)
	}
	if got := NewCache(7).Capacity(); got != 7 {
		t.Errorf("NewCache(7).Capacity() = %d, want 7", got)
	}
}
