// Package cache provides the catalog response cache: repeated runs over
// the same bibliography should not re-hit the external APIs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from an arbitrary identity string (for
// catalog lookups: provider name plus query fields).
func Key(identity string) string {
	hash := sha256.Sum256([]byte(identity))
	return "refscout:v1:" + hex.EncodeToString(hash[:])
}
