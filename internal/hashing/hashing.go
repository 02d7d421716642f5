// Package hashing is the content-hashing primitive shared by issuance and
// verification. Both sides hash the same canonical document bytes, so equal
// digests prove byte-identical content regardless of how it travelled.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Prefix marks rendered digests so they stay recognizable as opaque strings
// across ledger and storage boundaries.
const Prefix = "0x"

// encodedLen is the textual length of a digest: prefix + 64 hex chars.
const encodedLen = len(Prefix) + sha256.Size*2

// Digest is the fixed textual form of a SHA-256 content hash:
// "0x" followed by 64 lowercase hex characters.
type Digest string

// Sum computes the digest of data. Identical input always yields an identical
// digest; any single-bit change yields a different one.
func Sum(data []byte) Digest {
	sum := sha256.Sum256(data)
	return Digest(Prefix + hex.EncodeToString(sum[:]))
}

// Parse validates the textual form of a digest.
func Parse(s string) (Digest, error) {
	if len(s) != encodedLen || s[:len(Prefix)] != Prefix {
		return "", fmt.Errorf("malformed digest %q: want %q plus %d hex chars", s, Prefix, sha256.Size*2)
	}
	for _, c := range s[len(Prefix):] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("malformed digest %q: non-hex character %q", s, c)
		}
	}
	return Digest(s), nil
}

// Equal compares two digests.
func (d Digest) Equal(other Digest) bool {
	return d == other
}

// String returns the digest in its fixed textual form.
func (d Digest) String() string {
	return string(d)
}
