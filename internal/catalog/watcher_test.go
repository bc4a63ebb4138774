package catalog_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mandika-app/mandika/internal/catalog"
)

const watcherValidYAML = `
catalog:
  market: Watcher Mandi
commodities:
  - id: onion
    name: Onion
    price_min: 20
    price_max: 35
    unit: kg
    trend: stable
    category: vegetable
`

const watcherUpdatedYAML = `
catalog:
  market: Watcher Mandi
commodities:
  - id: onion
    name: Onion
    price_min: 28
    price_max: 45
    unit: kg
    trend: rising
    category: vegetable
`

const watcherInvalidYAML = `
commodities:
  - id: onion
    name: Onion
    price_min: -5
    price_max: 35
    unit: kg
    trend: stable
    category: vegetable
`

func writeSheet(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %q: %v", path, err)
	}
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	sheetPath := filepath.Join(dir, "prices.yaml")
	writeSheet(t, sheetPath, watcherValidYAML)

	w, err := catalog.NewWatcher(sheetPath, nil, catalog.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	cat := w.Current()
	if cat == nil {
		t.Fatal("Current() returned nil after initial load")
	}
	onion, ok := cat.ByID("onion")
	if !ok {
		t.Fatal("onion missing from initial catalog")
	}
	if onion.PriceMin != 20 {
		t.Errorf("price_min: got %v, want 20", onion.PriceMin)
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	sheetPath := filepath.Join(dir, "prices.yaml")
	writeSheet(t, sheetPath, watcherValidYAML)

	var mu sync.Mutex
	var callbackOld, callbackNew *catalog.Catalog
	called := make(chan struct{}, 1)

	w, err := catalog.NewWatcher(sheetPath, func(old, new *catalog.Catalog) {
		mu.Lock()
		callbackOld = old
		callbackNew = new
		mu.Unlock()
		select {
		case called <- struct{}{}:
		default:
		}
	}, catalog.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	// Give the initial poll a moment, then update the file.
	time.Sleep(100 * time.Millisecond)
	writeSheet(t, sheetPath, watcherUpdatedYAML)

	// Wait for callback.
	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked within timeout")
	}

	mu.Lock()
	defer mu.Unlock()

	if callbackOld == nil || callbackNew == nil {
		t.Fatal("callback received nil catalogs")
	}
	oldOnion, _ := callbackOld.ByID("onion")
	newOnion, _ := callbackNew.ByID("onion")
	if oldOnion.PriceMin != 20 {
		t.Errorf("old price_min: got %v, want 20", oldOnion.PriceMin)
	}
	if newOnion.PriceMin != 28 {
		t.Errorf("new price_min: got %v, want 28", newOnion.PriceMin)
	}

	// The sheet diff should surface the reprice.
	d := catalog.Diff(callbackOld, callbackNew)
	if !d.Changed || len(d.Changes) != 1 || !d.Changes[0].PriceChanged || !d.Changes[0].TrendChanged {
		t.Errorf("unexpected diff for repriced onion: %+v", d)
	}

	// Current should return the new catalog.
	curOnion, _ := w.Current().ByID("onion")
	if curOnion.PriceMin != 28 {
		t.Errorf("Current() price_min: got %v, want 28", curOnion.PriceMin)
	}
}

func TestWatcher_InvalidFileKeepsOldCatalog(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	sheetPath := filepath.Join(dir, "prices.yaml")
	writeSheet(t, sheetPath, watcherValidYAML)

	callCount := 0
	var mu sync.Mutex

	w, err := catalog.NewWatcher(sheetPath, func(old, new *catalog.Catalog) {
		mu.Lock()
		callCount++
		mu.Unlock()
	}, catalog.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	// Write a sheet that fails validation.
	time.Sleep(100 * time.Millisecond)
	writeSheet(t, sheetPath, watcherInvalidYAML)

	// Wait enough polls for it to notice the change.
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	calls := callCount
	mu.Unlock()

	if calls != 0 {
		t.Errorf("callback should not be called for an invalid sheet, got %d calls", calls)
	}

	// Current should still be the old valid catalog.
	onion, ok := w.Current().ByID("onion")
	if !ok || onion.PriceMin != 20 {
		t.Errorf("Current() should still have the old sheet, got %+v", onion)
	}
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()
	_, err := catalog.NewWatcher("/nonexistent/prices.yaml", nil)
	if err == nil {
		t.Fatal("expected error for non-existent file, got nil")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	sheetPath := filepath.Join(dir, "prices.yaml")
	writeSheet(t, sheetPath, watcherValidYAML)

	w, err := catalog.NewWatcher(sheetPath, nil, catalog.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Multiple stops should not panic.
	w.Stop()
	w.Stop()
	w.Stop()
}

func TestWatcher_TouchWithoutContentChange(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	sheetPath := filepath.Join(dir, "prices.yaml")
	writeSheet(t, sheetPath, watcherValidYAML)

	callCount := 0
	var mu sync.Mutex

	w, err := catalog.NewWatcher(sheetPath, func(old, new *catalog.Catalog) {
		mu.Lock()
		callCount++
		mu.Unlock()
	}, catalog.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	// Touch the file (update mtime) without changing content.
	time.Sleep(100 * time.Millisecond)
	now := time.Now().Add(time.Second)
	if err := os.Chtimes(sheetPath, now, now); err != nil {
		t.Fatalf("failed to touch file: %v", err)
	}

	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	calls := callCount
	mu.Unlock()

	if calls != 0 {
		t.Errorf("callback should not fire for touch-only, got %d calls", calls)
	}
}
