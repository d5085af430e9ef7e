package codec

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestString is Digest over the UTF-8 bytes of s.
func DigestString(s string) string {
	return Digest([]byte(s))
}
