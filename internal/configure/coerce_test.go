package configure

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TimurManjosov/goexperiments/internal/kv"
)

func TestCoerce_PriorityOrder(t *testing.T) {
	tests := []struct {
		raw  string
		kind kv.Kind
		text string
	}{
		{"true", kv.KindBool, "true"},
		{"FALSE", kv.KindBool, "false"},
		{"1", kv.KindInt, "1"},
		{"0", kv.KindInt, "0"},
		{"-42", kv.KindInt, "-42"},
		{"1.5", kv.KindFloat, "1.5"},
		{"1e3", kv.KindFloat, "1000"},
		{"99999999999999999999", kv.KindFloat, "1e+20"},
		{"https://example.com/x", kv.KindURL, "https://example.com/x"},
		{"myapp://experiments/configure", kv.KindURL, "myapp://experiments/configure"},
		{"example.com", kv.KindString, "example.com"},
		{"/relative/path", kv.KindString, "/relative/path"},
		{"mailto:someone@example.com", kv.KindString, "mailto:someone@example.com"},
		{"yes", kv.KindString, "yes"},
		{"blue", kv.KindString, "blue"},
		{"NaN", kv.KindString, "NaN"},
		{"inf", kv.KindString, "inf"},
		{"-Infinity", kv.KindString, "-Infinity"},
		{"+Inf", kv.KindString, "+Inf"},
		{"1e400", kv.KindString, "1e400"},
		{"0x1p-2", kv.KindString, "0x1p-2"},
		{"-0X10", kv.KindString, "-0X10"},
		{"-2.5", kv.KindFloat, "-2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v := Coerce(tt.raw)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.text, v.String())
		})
	}
}

func TestCoerce_IntegerNeverCollapsesToFloat(t *testing.T) {
	assert.Equal(t, kv.Int(7), Coerce("7"))
}

func TestCoerce_TrueIsNeverAString(t *testing.T) {
	assert.Equal(t, kv.Bool(true), Coerce("True"))
}
