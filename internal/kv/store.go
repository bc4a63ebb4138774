// Package kv provides the persistent slot store used by the Mandika core.
//
// A slot is a named blob: the translation cache and the sales journal each
// serialise themselves as one JSON document and keep it under a fixed slot
// name, rewriting it in full on every mutation. The store is deliberately
// dumb - no versioning, no merge - so concurrent writers from separate
// processes are last-writer-wins, which is an accepted limitation of the
// single-client design.
//
// Three implementations ship with the core: [MemStore] for tests,
// [FileStore] as the default on-disk form, and [SQLiteStore] for vendors
// who want everything in a single database file.
package kv

import (
	"context"
	"errors"
)

// ErrSlotNotFound is returned by Load when the named slot has never been saved.
var ErrSlotNotFound = errors.New("kv: slot not found")

// Store persists named blobs. All implementations must be safe for
// concurrent use within one process.
type Store interface {
	// Load returns the last payload saved under slot.
	// Returns [ErrSlotNotFound] when the slot does not exist.
	Load(ctx context.Context, slot string) ([]byte, error)

	// Save replaces the payload stored under slot. The write must be
	// atomic: readers never observe a partially written payload.
	Save(ctx context.Context, slot string, data []byte) error

	// Delete removes the slot. Deleting an absent slot is not an error.
	Delete(ctx context.Context, slot string) error

	// Close releases any underlying resources. The store must not be used
	// after Close returns.
	Close() error
}
