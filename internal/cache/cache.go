// Package cache stores serialized model analyses keyed by input text.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
	Len() int
}

// CacheKey derives a key from text; case and surrounding whitespace are ignored
func CacheKey(text string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(text))))
	return "indxflow:v1:" + hex.EncodeToString(hash[:])
}
