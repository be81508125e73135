package configure

import (
	"math"
	"strconv"
	"strings"

	"github.com/TimurManjosov/goexperiments/internal/kv"
)

// Coerce classifies raw in fixed priority order: boolean literal, integer,
// floating-point number, absolute URL, and finally the string itself. The first
// match wins, so "true" is always a Bool and "7" is always an Int.
func Coerce(raw string) kv.Value {
	if b, ok := parseBool(raw); ok {
		return kv.Bool(b)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return kv.Int(i)
	}
	if f, ok := parseDecimal(raw); ok {
		return kv.Float(f)
	}
	if u, err := kv.NewURL(raw); err == nil {
		return u
	}
	return kv.String(raw)
}

// parseBool accepts only "true" and "false", in any case.
func parseBool(raw string) (bool, bool) {
	switch {
	case strings.EqualFold(raw, "true"):
		return true, true
	case strings.EqualFold(raw, "false"):
		return false, true
	}
	return false, false
}

// parseDecimal accepts finite decimal literals only. ParseFloat also takes NaN,
// Inf and hex floats, which would not survive a JSON encoding.
func parseDecimal(raw string) (float64, bool) {
	digits := strings.TrimLeft(raw, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
