package cache

import (
	"crypto/md5"
	"encoding/hex"
)

// GenerateKey joins a namespace prefix and an identifier into a cache
// key.
func GenerateKey(prefix, id string) string {
	return prefix + ":" + id
}

// HashKey derives a short stable identifier from an arbitrary string.
// Feed sources use it to mint item IDs from URLs, so it must stay
// stable across releases.
func HashKey(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
