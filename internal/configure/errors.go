package configure

import (
	"errors"
	"fmt"
	"strings"
)

// Rejection reasons. Every one of them leaves the store untouched.
var (
	ErrEmptyCommand     = errors.New("empty command")
	ErrMalformedCommand = errors.New("malformed command")
	ErrHostMismatch     = errors.New("command host does not match gate host")
	ErrPathMismatch     = errors.New("command path is not /configure")
	ErrInvalidValue     = errors.New("invalid value")
)

// ErrApply wraps store failures hit while applying an already validated batch.
var ErrApply = errors.New("apply failed")

// InvalidValuesError lists every query item that could not be coerced in boolean mode.
type InvalidValuesError struct {
	Items []QueryItem
}

func (e *InvalidValuesError) Error() string {
	parts := make([]string, len(e.Items))
	for i, it := range e.Items {
		parts[i] = fmt.Sprintf("%s=%q", it.Name, it.Value)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidValue, strings.Join(parts, ", "))
}

func (e *InvalidValuesError) Unwrap() error { return ErrInvalidValue }
