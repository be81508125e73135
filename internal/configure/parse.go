package configure

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/TimurManjosov/goexperiments/internal/kv"
)

// DefaultGateHost is the host a command must carry unless another gate is configured.
const DefaultGateHost = "experiments"

// configurePath is the only path segment a command may lead with.
const configurePath = "configure"

// Mode selects how query values are interpreted.
type Mode uint8

const (
	// ModeTyped coerces every value to bool, int, float, URL or string. It never
	// rejects a value.
	ModeTyped Mode = iota
	// ModeBoolean accepts only "true"/"false"; any other value rejects the batch.
	ModeBoolean
)

func (m Mode) String() string {
	if m == ModeBoolean {
		return "boolean"
	}
	return "typed"
}

// ParseMode maps "typed" or "boolean" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "typed", "":
		return ModeTyped, nil
	case "boolean", "bool":
		return ModeBoolean, nil
	default:
		return 0, fmt.Errorf("unsupported configure mode: %s", s)
	}
}

// Parse validates command against gateHost and turns its query into actions, in
// query order. It never touches a store: either the whole command is valid and every
// action is returned, or an error explains why nothing may be applied.
//
// Command shape:
//
//	<scheme>://<gateHost>/configure?<name>=<value>&<name>&...
//
// The scheme is not checked. Path segments after "configure" are ignored.
func Parse(command, gateHost string, mode Mode) ([]Action, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrEmptyCommand
	}
	if gateHost == "" {
		gateHost = DefaultGateHost
	}

	u, err := url.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	if port := u.Port(); port != "" {
		if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
			return nil, fmt.Errorf("%w: invalid port %q", ErrMalformedCommand, port)
		}
	}

	if host := u.Hostname(); host != gateHost {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrHostMismatch, host, gateHost)
	}

	if first, ok := firstSegment(u.Path); !ok || first != configurePath {
		return nil, fmt.Errorf("%w: %q", ErrPathMismatch, u.Path)
	}

	items, err := SplitQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}

	actions := make([]Action, 0, len(items))
	var invalid []QueryItem
	for _, it := range items {
		if it.Removes() {
			actions = append(actions, RemoveAction(it.Name))
			continue
		}
		if mode == ModeBoolean {
			b, ok := parseBool(it.Value)
			if !ok {
				invalid = append(invalid, it)
				continue
			}
			actions = append(actions, SetAction(it.Name, kv.Bool(b)))
			continue
		}
		actions = append(actions, SetAction(it.Name, Coerce(it.Value)))
	}

	if len(invalid) > 0 {
		return nil, &InvalidValuesError{Items: invalid}
	}
	return actions, nil
}

func firstSegment(path string) (string, bool) {
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			return seg, true
		}
	}
	return "", false
}
