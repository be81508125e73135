// Package experiment provides named, persisted feature toggles.
//
// An experiment is identified by its name alone. Its value lives in a kv.Store under
// StorageKey(name), so a host application can share one store between experiments and
// its own settings without key collisions.
package experiment

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/goexperiments/internal/kv"
)

// Suffix is appended to every experiment name to form its storage key.
const Suffix = "_experiment"

// StorageKey returns the key name is persisted under.
func StorageKey(name string) string {
	return name + Suffix
}

// NameFromKey reverses StorageKey. ok is false for keys that do not belong to an
// experiment.
func NameFromKey(key string) (name string, ok bool) {
	name, ok = strings.CutSuffix(key, Suffix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Flag is a handle to one experiment. It is a cheap value: two Flags with the same
// name and store observe the same persisted state.
type Flag struct {
	name  string
	store kv.Store
	log   zerolog.Logger
}

// Named returns the experiment called name in the process-wide default store.
func Named(name string) Flag {
	return New(name, Defaults())
}

// New returns the experiment called name in the store carried by s.
func New(name string, s Settings) Flag {
	return Flag{name: name, store: s.Store, log: s.Logger}
}

func (f Flag) Name() string       { return f.name }
func (f Flag) StorageKey() string { return StorageKey(f.name) }

// Enabled reports the stored state. An experiment that was never set is disabled.
func (f Flag) Enabled(ctx context.Context) (bool, error) {
	return kv.GetBool(ctx, f.store, f.StorageKey())
}

// SetEnabled persists v immediately.
func (f Flag) SetEnabled(ctx context.Context, v bool) error {
	return f.Set(ctx, kv.Bool(v))
}

// Exists reports whether any value, of any kind, is stored for the experiment.
// It tells "explicitly disabled" apart from "never touched".
func (f Flag) Exists(ctx context.Context) (bool, error) {
	_, ok, err := f.store.Get(ctx, f.StorageKey())
	return ok, err
}

// Value returns the raw stored value.
func (f Flag) Value(ctx context.Context) (kv.Value, bool, error) {
	return f.store.Get(ctx, f.StorageKey())
}

// Set persists an arbitrary typed value.
func (f Flag) Set(ctx context.Context, v kv.Value) error {
	if err := f.store.Set(ctx, f.StorageKey(), v); err != nil {
		return fmt.Errorf("set experiment %s: %w", f.name, err)
	}
	return nil
}

// Int returns the stored integer. ok is false when absent or of another kind.
func (f Flag) Int(ctx context.Context) (int64, bool, error) {
	v, ok, err := f.Value(ctx)
	if i, isInt := v.(kv.Int); ok && isInt {
		return int64(i), true, err
	}
	return 0, false, err
}

// Float returns the stored floating-point number.
func (f Flag) Float(ctx context.Context) (float64, bool, error) {
	v, ok, err := f.Value(ctx)
	if x, isFloat := v.(kv.Float); ok && isFloat {
		return float64(x), true, err
	}
	return 0, false, err
}

// URL returns the stored URL.
func (f Flag) URL(ctx context.Context) (*url.URL, bool, error) {
	v, ok, err := f.Value(ctx)
	if u, isURL := v.(kv.URL); ok && isURL {
		return u.URL, true, err
	}
	return nil, false, err
}

// Text returns the stored string.
func (f Flag) Text(ctx context.Context) (string, bool, error) {
	v, ok, err := f.Value(ctx)
	if s, isString := v.(kv.String); ok && isString {
		return string(s), true, err
	}
	return "", false, err
}

// Remove erases the experiment. Afterwards Exists and Enabled both report false.
func (f Flag) Remove(ctx context.Context) error {
	if err := f.store.Remove(ctx, f.StorageKey()); err != nil {
		return fmt.Errorf("remove experiment %s: %w", f.name, err)
	}
	f.log.Info().Str("experiment", f.name).Msg("experiment removed")
	return nil
}
