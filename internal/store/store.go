// Package store persists client state (token, cached profile, theme) in SQLite
// so a session survives between CLI invocations.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// Store is the SQLite-backed tokenstore.Store.
type Store struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
	mu     sync.RWMutex
}

// New opens the state database at path, creating its directory and schema as
// needed. An empty path keeps state in memory for this process only.
func New(path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		path = memoryPath
	}
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database is private to its connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, logger: logger.With().Str("component", "store").Logger()}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Debug().Str("path", path).Msg("store initialized")
	return s, nil
}

func (s *Store) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if err := s.migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Path returns the database location, ":memory:" for an ephemeral store.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// DB exposes the connection to tests.
func (s *Store) DB() *sql.DB { return s.db }
