// Package cache provides the layered download cache: a size-capped memory
// layer in front of a raw-file disk layer. Everything fetched over HTTP
// (year indexes, BMF extracts, return XML, the concordance overlay) goes
// through it, so interrupted runs resume without refetching.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the read/write contract shared by every layer.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for a source URL. Hashing keeps keys
// filename-safe regardless of the URL shape.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "irs990:v1:" + hex.EncodeToString(hash[:])
}
