package kv

import (
	"context"
	"errors"
)

var (
	// ErrNilValue is returned by Set when called without a value.
	ErrNilValue = errors.New("kv: nil value")
	// ErrEmptyKey is returned for writes to the empty key.
	ErrEmptyKey = errors.New("kv: empty key")
)

// Store defines the key-value persistence contract experiments are stored in.
// Implementations must be safe for concurrent use; callers add no locking of their own.
type Store interface {
	// Get returns the value stored at key. The boolean is false if the key is absent,
	// which is not an error.
	Get(ctx context.Context, key string) (Value, bool, error)

	// Set stores v at key, replacing any value of any kind.
	Set(ctx context.Context, key string, v Value) error

	// Remove deletes key. Removing an absent key is not an error (idempotent).
	Remove(ctx context.Context, key string) error

	// List returns all entries whose key starts with prefix, sorted by key.
	// An empty prefix lists everything.
	List(ctx context.Context, prefix string) ([]Entry, error)

	// Close releases any resources held by the store.
	// After Close is called, the store should not be used.
	Close() error
}

// Batcher is implemented by stores that can apply several mutations as one unit.
type Batcher interface {
	// ApplyBatch applies every mutation in order, or none of them if any fails.
	ApplyBatch(ctx context.Context, muts []Mutation) error
}

// Mutation is a single write in a batch. A nil Value removes the key.
type Mutation struct {
	Key   string
	Value Value
}

// IsRemove reports whether m deletes its key.
func (m Mutation) IsRemove() bool { return m.Value == nil }

// Entry is a stored key and its value.
type Entry struct {
	Key   string
	Value Value
}

// GetBool reads key as a boolean. A key that was never set reads as false.
func GetBool(ctx context.Context, s Store, key string) (bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return Truthy(v), nil
}

// ApplyAll applies muts through the store's Batcher when it has one. Stores without
// batch support get the mutations one by one, stopping at the first failure.
func ApplyAll(ctx context.Context, s Store, muts []Mutation) error {
	if b, ok := s.(Batcher); ok {
		return b.ApplyBatch(ctx, muts)
	}
	for _, m := range muts {
		if err := apply(ctx, s, m); err != nil {
			return err
		}
	}
	return nil
}

func apply(ctx context.Context, s Store, m Mutation) error {
	if m.IsRemove() {
		return s.Remove(ctx, m.Key)
	}
	return s.Set(ctx, m.Key, m.Value)
}
