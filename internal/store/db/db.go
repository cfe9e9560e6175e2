// Package db provides the authoritative record store backed by embedded SQLite.
//
// The store owns identity and ordering for tasks and todos. It runs on the
// ncruces/go-sqlite3 driver (SQLite compiled to WASM, no cgo) with:
//   - WAL mode: readers proceed while a writer commits
//   - busy_timeout: concurrent processes wait for the write lock instead of failing
//   - BEGIN IMMEDIATE: read-modify-write transactions take the write lock up front,
//     so concurrent mutations of the same row serialize (last commit wins)
//
// Every failure from the engine is returned as a *store.StorageError;
// unresolved identifiers are returned as *store.NotFoundError.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/Jana-haikel/Task-manager/internal/store"
)

// DB wraps the SQLite connection pool.
type DB struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// Open creates a new database connection at the specified path.
//
// The parent directory is created if needed. The caller MUST call Close()
// when done so the WAL is checkpointed.
//
// Example:
//
//	database, err := db.Open("data/database.db")
//	if err != nil {
//	    return err
//	}
//	defer database.Close()
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, store.Storage("create database directory", err)
	}

	conn, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, store.Storage("open database", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, store.Storage("ping database", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	return &DB{
		conn: conn,
		path: path,
		now:  time.Now,
	}, nil
}

// dsn builds the driver connection string. Pragmas are applied per
// connection by the driver, so every pooled connection gets them.
func dsn(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_txlock=immediate",
		filepath.ToSlash(path))
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// RawDB returns the underlying sql.DB connection.
func (db *DB) RawDB() *sql.DB {
	return db.conn
}

// SetClock replaces the time source used for created_at/updated_at stamps.
// Intended for tests.
func (db *DB) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	db.now = now
}

// Close closes the database connection.
// Performs a WAL checkpoint to ensure all changes are persisted.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return store.Storage("close database", err)
	}

	db.conn = nil
	return nil
}

// InitSchema creates the tasks and todos tables if they don't exist.
// This is idempotent - safe to call multiple times.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the database schema with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		deadline TEXT,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	-- AUTOINCREMENT keeps todo ids from being reused after deletion
	CREATE TABLE IF NOT EXISTS todos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(created_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return store.Storage("initialize schema", err)
	}

	return nil
}

// requireAffected maps a zero-row mutation to NotFoundError.
func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return store.Storage("read affected rows", err)
	}
	if n == 0 {
		return &store.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
