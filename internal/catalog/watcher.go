package catalog

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Watcher monitors a price sheet file for changes and calls a callback when
// the file is modified. It polls rather than subscribing to filesystem
// events; mandi price sheets change a few times a day at most.
type Watcher struct {
	path     string
	interval time.Duration
	notify   func(old, new *Catalog)

	current  atomic.Pointer[Catalog]
	stopped  chan struct{}
	stopOnce sync.Once

	// state of the last successful read, touched only by the polling
	// goroutine once it starts
	last fingerprint
}

// fingerprint identifies one on-disk version of the sheet.
type fingerprint struct {
	mtime time.Time
	sum   [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval overrides the default 5 second polling interval. Zero and
// negative durations are ignored.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d <= 0 {
			return
		}
		w.interval = d
	}
}

// NewWatcher creates a price sheet watcher. It loads the initial sheet
// immediately and starts polling in a background goroutine.
func NewWatcher(path string, onChange func(old, new *Catalog), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		notify:   onChange,
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cat, fp, err := w.readSheet()
	if err != nil {
		return nil, fmt.Errorf("catalog: watcher initial load: %w", err)
	}
	w.current.Store(cat)
	w.last = fp

	go w.run()
	return w, nil
}

// Current returns the most recently loaded valid catalog.
func (w *Watcher) Current() *Catalog {
	return w.current.Load()
}

// Stop stops the file watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopped) })
}

func (w *Watcher) run() {
	tick := time.NewTicker(w.interval)
	defer tick.Stop()

	for {
		select {
		case <-w.stopped:
			return
		case <-tick.C:
			w.refresh()
		}
	}
}

// refresh swaps in a fresh catalog when the sheet file changed on disk. A
// sheet that fails to parse or validate leaves the current catalog in place.
func (w *Watcher) refresh() {
	// Cheap mtime probe before hashing the whole file.
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("price sheet watcher: cannot stat file", "path", w.path, "err", err)
		return
	}
	if info.ModTime().Equal(w.last.mtime) {
		return
	}

	cat, fp, err := w.readSheet()
	if err != nil {
		slog.Warn("price sheet watcher: failed to load sheet", "path", w.path, "err", err)
		return
	}
	if fp.sum == w.last.sum {
		// Touched but byte-identical. Remember the mtime so the next
		// tick skips the read.
		w.last.mtime = fp.mtime
		return
	}

	old := w.current.Swap(cat)
	w.last = fp

	slog.Info("price sheet watcher: sheet reloaded", "path", w.path, "commodities", cat.Len())
	if w.notify != nil {
		w.notify(old, cat)
	}
}

// readSheet loads and validates the sheet file, returning the parsed catalog
// together with the file's fingerprint.
func (w *Watcher) readSheet() (*Catalog, fingerprint, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, fingerprint{}, err
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, fingerprint{}, err
	}
	cat, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fingerprint{}, err
	}
	return cat, fingerprint{mtime: info.ModTime(), sum: sha256.Sum256(data)}, nil
}
