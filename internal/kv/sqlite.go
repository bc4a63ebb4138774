package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Compile-time assertion that SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps all slots in a single SQLite database file. The driver
// is pure Go (modernc.org/sqlite), so the binary stays cgo-free and the
// database travels with the vendor's data directory.
type SQLiteStore struct {
	conn *sqlx.DB
}

// OpenSQLite opens or creates the database at path and ensures the schema
// exists. WAL mode keeps readers unblocked during the full-slot rewrites the
// cache and journal perform.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("kv: open sqlite %q: %w", path, err)
	}

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("kv: migrate sqlite %q: %w", path, err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	);`
	_, err := s.conn.Exec(schema)
	return err
}

// Load implements [Store.Load].
func (s *SQLiteStore) Load(ctx context.Context, slot string) ([]byte, error) {
	var payload []byte
	err := s.conn.GetContext(ctx, &payload, `SELECT payload FROM slots WHERE name = ?`, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: load slot %q: %w", slot, err)
	}
	return payload, nil
}

// Save implements [Store.Save] via an upsert.
func (s *SQLiteStore) Save(ctx context.Context, slot string, data []byte) error {
	if slot == "" {
		return fmt.Errorf("kv: slot name must not be empty")
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO slots (name, payload, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		slot, data)
	if err != nil {
		return fmt.Errorf("kv: save slot %q: %w", slot, err)
	}
	return nil
}

// Delete implements [Store.Delete].
func (s *SQLiteStore) Delete(ctx context.Context, slot string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, slot); err != nil {
		return fmt.Errorf("kv: delete slot %q: %w", slot, err)
	}
	return nil
}

// Close implements [Store.Close].
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
