package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const (
	pgSelectEntry = `SELECT kind, value FROM kv_entries WHERE key = $1`
	pgUpsertEntry = `INSERT INTO kv_entries (key, kind, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (key) DO UPDATE SET kind = EXCLUDED.kind, value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	pgDeleteEntry = `DELETE FROM kv_entries WHERE key = $1`
	pgListEntries = `SELECT key, kind, value FROM kv_entries WHERE starts_with(key, $1) ORDER BY key`
)

// pgExecer is satisfied by both the pool and a transaction.
type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a PostgreSQL implementation of the Store interface.
// All entries live in a single kv_entries table keyed by the store key.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the kv_entries table if it does not exist yet.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create kv_entries table: %w", err)
	}
	return nil
}

// Get retrieves the value stored at key from the database.
func (p *PostgresStore) Get(ctx context.Context, key string) (Value, bool, error) {
	var kind, text string
	err := p.pool.QueryRow(ctx, pgSelectEntry, key).Scan(&kind, &text)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

// Set creates or updates the entry at key.
func (p *PostgresStore) Set(ctx context.Context, key string, v Value) error {
	return pgSet(ctx, p.pool, key, v)
}

// Remove deletes the entry at key.
func (p *PostgresStore) Remove(ctx context.Context, key string) error {
	_, err := p.pool.Exec(ctx, pgDeleteEntry, key)
	return err
}

// List returns the entries whose key starts with prefix.
func (p *PostgresStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := p.pool.Query(ctx, pgListEntries, prefix)
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

// ApplyBatch runs every mutation inside one transaction.
func (p *PostgresStore) ApplyBatch(ctx context.Context, muts []Mutation) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, m := range muts {
			if m.IsRemove() {
				if _, err := tx.Exec(ctx, pgDeleteEntry, m.Key); err != nil {
					return err
				}
				continue
			}
			if err := pgSet(ctx, tx, m.Key, m.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func pgSet(ctx context.Context, db pgExecer, key string, v Value) error {
	if key == "" {
		return ErrEmptyKey
	}
	if v == nil {
		return ErrNilValue
	}
	kind, text := Encode(v)
	_, err := db.Exec(ctx, pgUpsertEntry, key, kind, text)
	return err
}
