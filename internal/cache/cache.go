package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// DefaultTTL is the freshness window for cached API responses
const DefaultTTL = 10 * time.Minute

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Entry is an immutable cached value with its capture time
type Entry struct {
	CapturedAt time.Time
	Value      []byte
}

// Fresh reports whether the entry is still usable at now
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CapturedAt) < ttl
}

// Key builds a cache key from every part of a request shape. Parts are
// length-prefixed before hashing so ("ab", "c") and ("a", "bc") never collide.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		var prefix [8]byte
		n := len(p)
		for i := 7; i >= 0; i-- {
			prefix[i] = byte(n)
			n >>= 8
		}
		h.Write(prefix[:])
		h.Write([]byte(p))
	}
	label := "wikitrust:v1"
	if len(parts) > 0 {
		label += ":" + strings.ToLower(parts[0])
	}
	return label + ":" + hex.EncodeToString(h.Sum(nil))
}
