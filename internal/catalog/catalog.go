package catalog

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO
)

// Store provides durable, thread-safe persistence for items, playlists, the
// item/playlist join, the process-scoped name lockset, and the schedule
// blob. A single *sql.DB connection pool is shared across every goroutine
// that touches the catalog; SQLite's own locking plus WAL mode gives the
// read-uncommitted visibility policy spec'd for concurrent automation and
// control-surface access.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the SQLite-backed catalog at path, runs
// schema migrations, and clears the process-scoped playlist lockset left
// over from a previous run.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: run migrations: %w", err)
	}
	if err := s.clearLocks(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: clear playlist locks: %w", err)
	}

	slog.Info("Catalog store ready", "path", path)
	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying *sql.DB for the gated /sql control-surface
// passthrough. It is not used anywhere else in this package's own API.
func (s *Store) DB() *sql.DB {
	return s.db
}

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	filename    TEXT NOT NULL UNIQUE,
	duration    INTEGER NOT NULL DEFAULT -1,
	description TEXT NOT NULL DEFAULT '',
	playcount   INTEGER NOT NULL DEFAULT 0,
	type        TEXT NOT NULL DEFAULT 'LOCAL',
	cache       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS playlists (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	name   TEXT NOT NULL UNIQUE,
	weight INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS playlist_items (
	playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	item_id     INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	PRIMARY KEY (playlist_id, position)
);
CREATE INDEX IF NOT EXISTS idx_playlist_items_playlist ON playlist_items(playlist_id);

CREATE TABLE IF NOT EXISTS playlist_locks (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS blobs (
	label TEXT PRIMARY KEY,
	data  BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS superusers (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL
);
`

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// clearLocks drops every playlist lock. Locks are process-scoped: whatever
// was referenced by the previous run no longer holds once the engine
// restarts.
func (s *Store) clearLocks() error {
	_, err := s.db.Exec(`DELETE FROM playlist_locks`)
	return err
}
