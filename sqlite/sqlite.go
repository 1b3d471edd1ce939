// Package sqlite provides a SQLite full-text search store over generated
// documentation indexes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SchemaVersion is stored in PRAGMA user_version. A database written with a
// different version is rebuilt on open; its contents are derived from the
// index and can always be regenerated.
const SchemaVersion = 1

// DB is a search database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a DB for the file at path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open connects and brings the schema to SchemaVersion.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open search database: %w", err)
	}

	// One writer at a time.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to search database: %w", err)
	}

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if db.path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	db.db = conn
	if err := db.migrate(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, nil)
}

// Version returns the schema version recorded in the database.
func (db *DB) Version() (int, error) {
	var v int
	err := db.db.QueryRow("PRAGMA user_version").Scan(&v)
	return v, err
}

func (db *DB) migrate() error {
	v, err := db.Version()
	if err != nil {
		return err
	}
	if v == SchemaVersion {
		return nil
	}
	if v != 0 {
		if _, err := db.db.Exec(dropSchema); err != nil {
			return err
		}
	}
	if _, err := db.db.Exec(schema); err != nil {
		return err
	}
	_, err = db.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion))
	return err
}

const dropSchema = `
	DROP TABLE IF EXISTS files_fts;
	DROP TABLE IF EXISTS files;
	DROP TABLE IF EXISTS sources;
	DROP TABLE IF EXISTS meta;
`

// schema holds one row per indexed file. files_fts rowids match files.id.
const schema = `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sources (
		name TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		entry TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_files_source ON files(source);

	CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(title, description, tags, body);
`
