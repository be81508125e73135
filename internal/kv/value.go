package kv

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindInt
	KindFloat
	KindURL
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindURL:
		return "url"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "bool":
		return KindBool, nil
	case "int":
		return KindInt, nil
	case "float":
		return KindFloat, nil
	case "url":
		return KindURL, nil
	case "string":
		return KindString, nil
	default:
		return 0, fmt.Errorf("unknown value kind: %q", s)
	}
}

// Value is a typed value held by a Store. The set of implementations is closed:
// Bool, Int, Float, URL and String.
type Value interface {
	Kind() Kind
	String() string
	value()
}

type (
	Bool   bool
	Int    int64
	Float  float64
	String string
)

// URL is an absolute URL value. Use NewURL to build one from a string.
type URL struct{ *url.URL }

func (Bool) Kind() Kind   { return KindBool }
func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (URL) Kind() Kind    { return KindURL }
func (String) Kind() Kind { return KindString }

func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }
func (i Int) String() string    { return strconv.FormatInt(int64(i), 10) }
func (f Float) String() string  { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (s String) String() string { return string(s) }

func (u URL) String() string {
	if u.URL == nil {
		return ""
	}
	return u.URL.String()
}

func (Bool) value()   {}
func (Int) value()    {}
func (Float) value()  {}
func (URL) value()    {}
func (String) value() {}

// NewURL parses raw and returns it as a URL value. Only absolute URLs, those with
// both a scheme and a host, are accepted.
func NewURL(raw string) (URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URL{}, err
	}
	if u.Scheme == "" || u.Host == "" {
		return URL{}, fmt.Errorf("not an absolute url: %q", raw)
	}
	return URL{u}, nil
}

// Truthy reports the boolean reading of v. A Bool reads as itself, numbers are true
// when non-zero and strings are true for "true", "yes" or "1" in any case.
// URLs and nil read as false.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case Bool:
		return bool(t)
	case Int:
		return t != 0
	case Float:
		return t != 0
	case String:
		switch strings.ToLower(strings.TrimSpace(string(t))) {
		case "true", "yes", "1":
			return true
		}
		return false
	case URL:
		return false
	default:
		return false
	}
}

// Native unwraps v into a plain Go value, suitable for JSON or YAML encoding.
// URLs are rendered as strings, and so are NaN and the infinities, which JSON has
// no number for.
func Native(v Value) any {
	switch t := v.(type) {
	case Bool:
		return bool(t)
	case Int:
		return int64(t)
	case Float:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return t.String()
		}
		return float64(t)
	case String:
		return string(t)
	case URL:
		return t.String()
	default:
		return nil
	}
}

// Encode returns the kind tag and textual form used by the SQL backends.
func Encode(v Value) (kind, text string) {
	return v.Kind().String(), v.String()
}

// Decode rebuilds a Value from the pair produced by Encode.
func Decode(kind, text string) (Value, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	switch k {
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("decode bool: %w", err)
		}
		return Bool(b), nil
	case KindInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode int: %w", err)
		}
		return Int(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("decode float: %w", err)
		}
		return Float(f), nil
	case KindURL:
		u, err := NewURL(text)
		if err != nil {
			return nil, fmt.Errorf("decode url: %w", err)
		}
		return u, nil
	case KindString:
		return String(text), nil
	}
	return nil, fmt.Errorf("unknown value kind: %q", kind)
}
