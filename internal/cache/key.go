package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// TextKey derives the cache key for a piece of text to be embedded. The text
// is case-folded and whitespace-collapsed first so that cosmetic differences
// between postings do not fragment the cache.
func TextKey(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
