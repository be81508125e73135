package auth

import (
	"strings"
	"testing"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}

	if !strings.HasPrefix(key, KeyPrefix) {
		t.Errorf("GenerateAPIKey() = %v, want prefix %v", key, KeyPrefix)
	}

	// Base64 URL encoding without padding: 32 bytes -> 43 characters
	expectedLen := len(KeyPrefix) + 43
	if len(key) != expectedLen {
		t.Errorf("GenerateAPIKey() length = %v, want %v", len(key), expectedLen)
	}

	other, _ := GenerateAPIKey()
	if other == key {
		t.Error("GenerateAPIKey() returned the same key twice")
	}
}

func TestHashAndVerifyAPIKey(t *testing.T) {
	key := "test-api-key-12345"

	hash, err := HashAPIKey(key)
	if err != nil {
		t.Fatalf("HashAPIKey() error = %v", err)
	}
	if !IsHash(hash) {
		t.Errorf("IsHash(%q) = false", hash)
	}
	if IsHash(key) {
		t.Error("IsHash() accepted a plain key")
	}

	if !VerifyAPIKey(key, hash) {
		t.Error("VerifyAPIKey() failed for correct key")
	}
	if VerifyAPIKey("wrong-key", hash) {
		t.Error("VerifyAPIKey() succeeded for incorrect key")
	}
}

func TestKeyChecker(t *testing.T) {
	hash, err := HashAPIKey("hashed-key")
	if err != nil {
		t.Fatalf("HashAPIKey() error = %v", err)
	}
	k := NewKeyChecker("plain-key", []string{hash})

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"plain", "plain-key", true},
		{"hashed", "hashed-key", true},
		{"wrong", "other-key", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := k.Check(tt.token); got != tt.want {
				t.Errorf("Check(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}

	if NewKeyChecker("", nil).Check("") {
		t.Error("empty checker must reject the empty token")
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer   abc  ", "abc"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractBearerToken(tt.header); got != tt.want {
			t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
