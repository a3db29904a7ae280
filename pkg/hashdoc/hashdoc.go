// Package hashdoc computes the SHA-256 digest of canonical document bytes
// and formats it the way every hash in this module is formatted:
// "sha256:" followed by lowercase hex.
package hashdoc

import (
	"crypto/sha256"
	"encoding/hex"
)

// Prefix is prepended to every formatted hash in this module.
const Prefix = "sha256:"

// Digest computes SHA-256(canonical) and returns the raw 32-byte digest.
func Digest(canonical []byte) [32]byte {
	return sha256.Sum256(canonical)
}

// Format renders a 32-byte digest as "sha256:<hex>".
func Format(digest [32]byte) string {
	return Prefix + hex.EncodeToString(digest[:])
}

// Hash is the one-shot convenience most callers want: canonical bytes in,
// "sha256:<hex>" out.
func Hash(canonical []byte) string {
	return Format(Digest(canonical))
}
