package gallery

import (
	"crypto/sha256"
	"encoding/hex"
)

// CacheKey derives the cache key for an image from its path string alone:
// the hex-encoded SHA-256 of the path.
func CacheKey(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}
