package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeQuery lowercases and trims a query so that hashing is
// stable across cosmetic variations.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// QueryHash returns the SHA-256 hex digest of the normalized query.
func QueryHash(query string) string {
	sum := sha256.Sum256([]byte(NormalizeQuery(query)))
	return hex.EncodeToString(sum[:])
}
