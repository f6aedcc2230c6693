// Package sqlite implements the loan and scenario run stores on an embedded SQLite file.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"mortgage-stress-lab/internal/config"
	"mortgage-stress-lab/internal/observability"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store wraps a SQLite connection.
type Store struct {
	db *sql.DB
}

// Open initializes SQLite storage from config.
// An in-memory database is limited to a single connection so every
// query sees the same database.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = MemoryPath
	}
	inMemory := path == MemoryPath
	if !inMemory {
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if inMemory {
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxLifetime(0)
	} else {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set sqlite wal mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set sqlite synchronous mode: %w", err)
	}

	return &Store{db: conn}, nil
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", path, err)
	}
	return nil
}

// isDuplicateKeyError checks if error is a primary key or unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// observe starts timing a query. Call the returned func when the query
// finished; errp is read at that point.
func observe(operation string, errp *error) func() {
	start := time.Now()
	return func() {
		observability.RecordDBQuery("sqlite", operation, time.Since(start).Seconds(), *errp)
	}
}
