package configure

import (
	"fmt"

	"github.com/TimurManjosov/goexperiments/internal/experiment"
	"github.com/TimurManjosov/goexperiments/internal/kv"
)

// Op is what an Action does to its experiment.
type Op uint8

const (
	OpSet Op = iota + 1
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpRemove:
		return "remove"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Action is one parsed, validated change to a single experiment.
type Action struct {
	Name  string
	Op    Op
	Value kv.Value // nil for OpRemove
}

// SetAction returns an Action storing v under name.
func SetAction(name string, v kv.Value) Action {
	return Action{Name: name, Op: OpSet, Value: v}
}

// RemoveAction returns an Action deleting name.
func RemoveAction(name string) Action {
	return Action{Name: name, Op: OpRemove}
}

// Mutation translates the action into a store write on the experiment's storage key.
func (a Action) Mutation() kv.Mutation {
	m := kv.Mutation{Key: experiment.StorageKey(a.Name)}
	if a.Op == OpSet {
		m.Value = a.Value
	}
	return m
}

func (a Action) String() string {
	if a.Op == OpRemove {
		return "remove " + a.Name
	}
	return fmt.Sprintf("set %s=%s (%s)", a.Name, a.Value, a.Value.Kind())
}
