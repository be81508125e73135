package kv

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewStore_Memory(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, "memory", "")
	if err != nil {
		t.Fatalf("NewStore('memory') failed: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
	defer store.Close()

	if _, ok := store.(Batcher); !ok {
		t.Error("Expected memory store to support batches")
	}
}

func TestNewStore_SQLite(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, "sqlite", filepath.Join(t.TempDir(), "x.db"))
	if err != nil {
		t.Fatalf("NewStore('sqlite') failed: %v", err)
	}
	defer store.Close()

	if err := store.Set(ctx, "k", Bool(true)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
}

func TestNewStore_SQLiteRequiresPath(t *testing.T) {
	if _, err := NewStore(context.Background(), "sqlite", ""); err == nil {
		t.Fatal("Expected error for empty sqlite path")
	}
}

func TestNewStore_UnsupportedType(t *testing.T) {
	ctx := context.Background()
	_, err := NewStore(ctx, "invalid-type", "")
	if err == nil {
		t.Fatal("Expected error for unsupported store type")
	}
	expectedMsg := "unsupported store type: invalid-type"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
}

func TestNewStore_PostgresWithInvalidDSN(t *testing.T) {
	// Invalid DSN should fail during pool creation
	if _, err := NewStore(context.Background(), "postgres", "invalid-dsn"); err == nil {
		t.Fatal("Expected error for invalid DSN")
	}
}

func TestNewStore_CaseSensitivity(t *testing.T) {
	ctx := context.Background()

	// Store type should be case-sensitive (lowercase expected)
	for _, typ := range []string{"Memory", "MEMORY", "SQLite"} {
		if _, err := NewStore(ctx, typ, ""); err == nil {
			t.Errorf("Expected error for %q", typ)
		}
	}
}
