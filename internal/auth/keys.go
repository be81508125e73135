// Package auth checks admin API keys. Keys are accepted either as the plain
// ADMIN_API_KEY or by matching one of the configured bcrypt hashes.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyPrefix is the prefix for all generated API keys
	KeyPrefix = "exk_"
	// KeyLength is the length of the random part of the key (32 bytes = 256 bits)
	KeyLength = 32
	// BCryptCost is the cost factor for bcrypt hashing
	BCryptCost = 12
)

// GenerateAPIKey generates a new random API key.
func GenerateAPIKey() (string, error) {
	randomBytes := make([]byte, KeyLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return KeyPrefix + base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// HashAPIKey hashes an API key using bcrypt
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), BCryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hash), nil
}

// VerifyAPIKey reports whether key matches the bcrypt hash.
func VerifyAPIKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// IsHash reports whether s looks like a bcrypt hash.
func IsHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

// ExtractBearerToken extracts the bearer token from an Authorization header
func ExtractBearerToken(authHeader string) string {
	token := strings.TrimSpace(authHeader)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

// KeyChecker holds the keys that grant admin access.
type KeyChecker struct {
	plain  string
	hashes []string
}

// NewKeyChecker accepts plain (if non-empty) and any key matching one of hashes.
func NewKeyChecker(plain string, hashes []string) *KeyChecker {
	return &KeyChecker{plain: plain, hashes: hashes}
}

// Check reports whether token grants admin access. The empty token never does.
func (k *KeyChecker) Check(token string) bool {
	if token == "" {
		return false
	}
	if k.plain != "" && subtle.ConstantTimeCompare([]byte(token), []byte(k.plain)) == 1 {
		return true
	}
	for _, h := range k.hashes {
		if VerifyAPIKey(token, h) {
			return true
		}
	}
	return false
}
