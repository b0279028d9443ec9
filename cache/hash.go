package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key returns the content key for a piece of text: the hex-encoded sha256
// of its bytes. Chunk keys, description keys and the two halves of a
// composite video key all go through this one function; mixing hash
// algorithms across stages would silently break the cross-stage joins.
//
// Identical text yields the identical key within and across runs, which is
// what makes resumption and cross-run dedup work. The empty string is a
// valid input with its own distinct key.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// CompositeKey joins a chunk key and a description key into the storage
// key for a video artifact. The chunk half disambiguates identical
// description text appearing under different chunks.
func CompositeKey(chunkKey, descriptionKey string) string {
	return chunkKey + "_" + descriptionKey
}
