package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const (
	sqliteSelectEntry = `SELECT kind, value FROM kv_entries WHERE key = ?`
	sqliteUpsertEntry = `INSERT INTO kv_entries (key, kind, value, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET kind = excluded.kind, value = excluded.value, updated_at = excluded.updated_at`
	sqliteDeleteEntry = `DELETE FROM kv_entries WHERE key = ?`
	sqliteListEntries = `SELECT key, kind, value FROM kv_entries WHERE substr(key, 1, length(?)) = ? ORDER BY key`
)

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLiteStore keeps entries in a local SQLite file. It is the persistent choice for
// single-process hosts that have no database server.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the database at path and makes sure the
// kv_entries table exists.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv_entries table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Value, bool, error) {
	var kind, text string
	err := s.db.QueryRowContext(ctx, sqliteSelectEntry, key).Scan(&kind, &text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	v, err := Decode(kind, text)
	if err != nil {
		return nil, false, fmt.Errorf("key %q: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, v Value) error {
	return sqliteSet(ctx, s.db, key, v)
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, sqliteDeleteEntry, key)
	return err
}

func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, sqliteListEntries, prefix, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var key, kind, text string
		if err := rows.Scan(&key, &kind, &text); err != nil {
			return nil, err
		}
		v, err := Decode(kind, text)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		entries = append(entries, Entry{Key: key, Value: v})
	}
	return entries, rows.Err()
}

// ApplyBatch runs every mutation in one transaction; any failure rolls back the lot.
func (s *SQLiteStore) ApplyBatch(ctx context.Context, muts []Mutation) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, m := range muts {
		if m.IsRemove() {
			if _, err = tx.ExecContext(ctx, sqliteDeleteEntry, m.Key); err != nil {
				return err
			}
			continue
		}
		if err = sqliteSet(ctx, tx, m.Key, m.Value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func sqliteSet(ctx context.Context, db sqlExecer, key string, v Value) error {
	if key == "" {
		return ErrEmptyKey
	}
	if v == nil {
		return ErrNilValue
	}
	kind, text := Encode(v)
	_, err := db.ExecContext(ctx, sqliteUpsertEntry, key, kind, text)
	return err
}
