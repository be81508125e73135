package configure

import (
	"fmt"
	"net/url"
	"strings"
)

// QueryItem is one name[=value] pair of a command's query, in command order.
type QueryItem struct {
	Name     string
	Value    string
	HasValue bool // an '=' was present, even if nothing followed it
}

// Removes reports whether the item asks for its experiment to be deleted. Both
// "?name" and "?name=" mean remove.
func (q QueryItem) Removes() bool {
	return !q.HasValue || q.Value == ""
}

// SplitQuery splits a raw query string into its items, keeping their order.
// Percent escapes are decoded; '+' is kept literally. Items with an empty name are
// skipped.
func SplitQuery(raw string) ([]QueryItem, error) {
	var items []QueryItem
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		rawName, rawValue, hasValue := strings.Cut(part, "=")

		name, err := url.PathUnescape(rawName)
		if err != nil {
			return nil, fmt.Errorf("query name %q: %w", rawName, err)
		}
		if name == "" {
			continue
		}
		value, err := url.PathUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("query value for %q: %w", name, err)
		}

		items = append(items, QueryItem{Name: name, Value: value, HasValue: hasValue})
	}
	return items, nil
}
