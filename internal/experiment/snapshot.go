package experiment

import (
	"context"

	"github.com/TimurManjosov/goexperiments/internal/kv"
)

// State is the stored value of one experiment at the time it was listed.
type State struct {
	Name  string
	Value kv.Value
}

// Enabled is the boolean reading of the stored value.
func (s State) Enabled() bool { return kv.Truthy(s.Value) }

// Snapshot lists every experiment in store, sorted by storage key. Keys that do not
// carry the experiment suffix are skipped.
func Snapshot(ctx context.Context, store kv.Store) ([]State, error) {
	entries, err := store.List(ctx, "")
	if err != nil {
		return nil, err
	}

	states := make([]State, 0, len(entries))
	for _, e := range entries {
		name, ok := NameFromKey(e.Key)
		if !ok {
			continue
		}
		states = append(states, State{Name: name, Value: e.Value})
	}
	return states, nil
}
