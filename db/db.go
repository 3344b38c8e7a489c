// ABOUTME: SQLite connection management and the sqlite state backend
// ABOUTME: Opens the database with WAL mode and stores the snapshot in crm_state
package db

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

func OpenDatabase(path string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// Configure connection pool for SQLite (avoid database locked errors)
	db.SetMaxOpenConns(1)

	// Initialize schema
	if err := InitSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// SQLiteBackend keeps the snapshot as a single row of crm_state.
type SQLiteBackend struct {
	db  *sql.DB
	key string
}

func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	database, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteBackend(database), nil
}

// NewSQLiteBackend wraps an already initialized database.
func NewSQLiteBackend(database *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: database, key: StateKey}
}

func (b *SQLiteBackend) Load(ctx context.Context) (*Snapshot, error) {
	var payload string
	err := b.db.QueryRowContext(ctx,
		`SELECT snapshot FROM crm_state WHERE state_key = ?`, b.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot([]byte(payload))
}

func (b *SQLiteBackend) Save(ctx context.Context, snap *Snapshot) error {
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, `
		INSERT INTO crm_state (state_key, snapshot, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(state_key) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		b.key, string(payload))
	return err
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
