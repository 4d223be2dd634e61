// Package checksum fingerprints file contents so a write can detect that
// the file changed since it was last read.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether data still has the digest sum.
func Matches(data []byte, sum string) bool {
	return Sum(data) == sum
}
