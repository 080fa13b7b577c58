package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// ComputeSetHash hashes a collection of already-serialized members in an
// order-insensitive way, so the same set always fingerprints identically.
func ComputeSetHash(members [][]byte) Hash {
	encoded := make([]string, 0, len(members))
	for _, m := range members {
		encoded = append(encoded, string(NewHash(m)))
	}
	sort.Strings(encoded)

	var data strings.Builder
	for _, e := range encoded {
		data.WriteString(e)
	}
	return NewHash([]byte(data.String()))
}
