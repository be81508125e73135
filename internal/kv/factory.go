package kv

import (
	"context"
	"fmt"

	mydb "github.com/TimurManjosov/goexperiments/internal/db"
)

// Supported store types for NewStore.
const (
	TypeMemory   = "memory"
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// NewStore creates a new store based on the given store type.
// Supported types: "memory", "postgres", "sqlite". For postgres dsn is a connection
// string, for sqlite it is the database file path.
func NewStore(ctx context.Context, storeType, dsn string) (Store, error) {
	switch storeType {
	case TypeMemory:
		return NewMemoryStore(), nil
	case TypePostgres:
		pool, err := mydb.NewPool(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		st := NewPostgresStore(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return st, nil
	case TypeSQLite:
		return OpenSQLiteStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
