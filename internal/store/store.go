// Package store is the document store backing the client: organizations,
// channels, messages, and profiles in a local SQLite database. Writes
// assign server timestamps and bump a change sequence that the sync
// layer watches.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// errNoChange aborts a write transaction without bumping the change
// sequence; used for no-op writes so watchers don't wake spuriously.
var errNoChange = errors.New("no change")

// Store wraps the SQLite connection for one workspace database.
type Store struct {
	db   *sql.DB
	path string

	mu    sync.Mutex
	hooks []func()
}

// Open opens (creating if needed) the workspace database and applies
// the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("open store: %w", err)
		}
	}

	s := &Store{db: conn, path: path}
	if err := s.initSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path, used by the sync layer to watch
// for out-of-process writes.
func (s *Store) Path() string {
	return s.path
}

// DB exposes the raw connection for tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// AddChangeHook registers a callback invoked after every committed
// write. Hooks run on the writer's goroutine and must not block.
func (s *Store) AddChangeHook(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

func (s *Store) notifyChange() {
	s.mu.Lock()
	hooks := make([]func(), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()
	for _, hook := range hooks {
		hook()
	}
}

// Seq returns the current change sequence. Every committed write bumps
// it by one, so watchers can cheaply detect whether anything changed.
func (s *Store) Seq() (int64, error) {
	var seq int64
	if err := s.db.QueryRow("SELECT seq FROM loft_seq WHERE id = 1").Scan(&seq); err != nil {
		return 0, fmt.Errorf("read seq: %w", err)
	}
	return seq, nil
}

// write runs fn inside a transaction that also bumps the change
// sequence, then fires change hooks on success.
func (s *Store) write(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec("UPDATE loft_seq SET seq = seq + 1 WHERE id = 1"); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
