package kv

import (
	"math"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	link, err := NewURL("https://example.com/path?q=1")
	if err != nil {
		t.Fatalf("NewURL failed: %v", err)
	}

	tests := []struct {
		name string
		in   Value
		kind string
		text string
	}{
		{"bool", Bool(true), "bool", "true"},
		{"int", Int(-42), "int", "-42"},
		{"float", Float(0.1), "float", "0.1"},
		{"url", link, "url", "https://example.com/path?q=1"},
		{"string", String("hello world"), "string", "hello world"},
		{"empty string", String(""), "string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, text := Encode(tt.in)
			if kind != tt.kind || text != tt.text {
				t.Fatalf("Encode = (%q, %q), want (%q, %q)", kind, text, tt.kind, tt.text)
			}
			out, err := Decode(kind, text)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if out.Kind() != tt.in.Kind() || out.String() != tt.in.String() {
				t.Errorf("Decode = %v (%s), want %v (%s)", out, out.Kind(), tt.in, tt.in.Kind())
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	cases := [][2]string{
		{"nope", "x"},
		{"bool", "maybe"},
		{"int", "1.5"},
		{"float", "abc"},
		{"url", "/relative/only"},
	}
	for _, c := range cases {
		if _, err := Decode(c[0], c[1]); err == nil {
			t.Errorf("Decode(%q, %q): expected error", c[0], c[1])
		}
	}
}

func TestFloatEncodingRoundTripsSpecials(t *testing.T) {
	for _, f := range []float64{math.Inf(1), math.Inf(-1), 1e300, -0.5} {
		kind, text := Encode(Float(f))
		v, err := Decode(kind, text)
		if err != nil {
			t.Fatalf("Decode(%q) failed: %v", text, err)
		}
		if float64(v.(Float)) != f {
			t.Errorf("round trip of %v gave %v", f, v)
		}
	}
}

func TestNewURL_RequiresSchemeAndHost(t *testing.T) {
	for _, raw := range []string{"example.com", "/path", "mailto:someone@example.com", "file:///tmp/x"} {
		if _, err := NewURL(raw); err == nil {
			t.Errorf("NewURL(%q): expected error", raw)
		}
	}
}

func TestTruthy(t *testing.T) {
	link, _ := NewURL("https://example.com")
	tests := []struct {
		in   Value
		want bool
	}{
		{nil, false},
		{Bool(true), true},
		{Bool(false), false},
		{Int(0), false},
		{Int(3), true},
		{Float(0), false},
		{Float(0.5), true},
		{String("YES"), true},
		{String("1"), true},
		{String("no"), false},
		{link, false},
	}
	for _, tt := range tests {
		if got := Truthy(tt.in); got != tt.want {
			t.Errorf("Truthy(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNative(t *testing.T) {
	link, _ := NewURL("https://example.com")
	if Native(link) != "https://example.com" {
		t.Errorf("Native(url) = %v", Native(link))
	}
	if Native(Int(5)) != int64(5) {
		t.Errorf("Native(int) = %#v", Native(Int(5)))
	}
	if Native(nil) != nil {
		t.Error("Native(nil) should be nil")
	}
	if Native(Float(math.NaN())) != "NaN" || Native(Float(math.Inf(-1))) != "-Inf" {
		t.Errorf("Native(non-finite) = %#v, %#v", Native(Float(math.NaN())), Native(Float(math.Inf(-1))))
	}
	if Native(Float(2.5)) != 2.5 {
		t.Errorf("Native(float) = %#v", Native(Float(2.5)))
	}
}
