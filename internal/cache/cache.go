package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores small opaque values, mostly ledger proof ids
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ProofKey derives the cache key for a payload anchored by a ledger backend.
// Identical payloads on the same backend share a key.
func ProofKey(backend, payload string) string {
	hash := sha256.Sum256([]byte(backend + "\x00" + payload))
	return "tribunal:v1:" + hex.EncodeToString(hash[:])
}
