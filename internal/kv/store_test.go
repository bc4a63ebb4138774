package kv_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mandika-app/mandika/internal/kv"
)

// storesUnderTest builds one instance of every Store implementation against a
// fresh temp location.
func storesUnderTest(t *testing.T) map[string]kv.Store {
	t.Helper()

	dir := t.TempDir()
	fileStore, err := kv.NewFileStore(filepath.Join(dir, "slots"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	sqliteStore, err := kv.OpenSQLite(filepath.Join(dir, "mandika.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]kv.Store{
		"mem":    kv.NewMemStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			payload := []byte(`{"entries":[{"key":"en|hi|hello"}]}`)
			if err := store.Save(ctx, "translation_cache", payload); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := store.Load(ctx, "translation_cache")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if string(got) != string(payload) {
				t.Errorf("Load = %q, want %q", got, payload)
			}
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save(ctx, "journal", []byte("first")); err != nil {
				t.Fatalf("Save first: %v", err)
			}
			if err := store.Save(ctx, "journal", []byte("second")); err != nil {
				t.Fatalf("Save second: %v", err)
			}

			got, err := store.Load(ctx, "journal")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if string(got) != "second" {
				t.Errorf("Load after overwrite = %q, want %q", got, "second")
			}
		})
	}
}

func TestStore_MissingSlot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(ctx, "never_saved")
			if !errors.Is(err, kv.ErrSlotNotFound) {
				t.Errorf("Load(missing) error = %v, want ErrSlotNotFound", err)
			}
		})
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save(ctx, "gone", []byte("x")); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := store.Delete(ctx, "gone"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := store.Load(ctx, "gone"); !errors.Is(err, kv.ErrSlotNotFound) {
				t.Errorf("Load after Delete error = %v, want ErrSlotNotFound", err)
			}

			// Deleting again must not error.
			if err := store.Delete(ctx, "gone"); err != nil {
				t.Errorf("Delete(absent) = %v, want nil", err)
			}
		})
	}
}

func TestFileStore_RejectsUnsafeSlotNames(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := kv.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	for _, slot := range []string{"", "../escape", "a/b", "dot.dot"} {
		if err := store.Save(ctx, slot, []byte("x")); err == nil {
			t.Errorf("Save(%q) = nil error, want rejection", slot)
		}
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	first, err := kv.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := first.Save(ctx, "translation_cache", []byte("persisted")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second, err := kv.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore (reopen): %v", err)
	}
	got, err := second.Load(ctx, "translation_cache")
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if string(got) != "persisted" {
		t.Errorf("Load after reopen = %q, want %q", got, "persisted")
	}
}
