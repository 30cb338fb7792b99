// Package document defines the harvested document shape and the two hashes
// derived from it: a fast non-cryptographic document-id (from the source
// identifier) and a cryptographic content hash (from the canonical
// serialization), per spec.md §3.
package document

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// Document is an opaque payload with a stable, externally assigned source
// identifier and its canonical serialization. Two documents with equal
// Body produce equal content hashes regardless of SourceID.
type Document struct {
	SourceID string
	Body     []byte
}

// ID derives the cache document-id from the source identifier. It uses
// xxhash rather than a cryptographic hash: the id only needs to be a stable,
// collision-resistant-enough key for the fan-out directory layout, not a
// security property.
func ID(sourceID string) string {
	sum := xxhash.Sum64String(sourceID)
	return hex.EncodeToString(encodeUint64(sum))
}

// ContentHash computes the content-dependent identity of body: a SHA-256
// digest of the canonical serialization, per spec.md §3.
func ContentHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
