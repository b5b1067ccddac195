// Package crypto provides the cryptographic primitives facade for the call
// core. It wraps ed25519 signing, X25519 key agreement, SHA-256/512,
// HMAC-SHA512, PBKDF2-SHA512 and AES-256-CBC behind a small set of free
// functions. The facade owns no keys and performs no logging; callers hold
// key material and decide what to do with errors.
package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

// Digest size constants.
const (
	// Hash256Size is the SHA-256 digest size in bytes.
	Hash256Size = 32
	// Hash512Size is the SHA-512 digest size in bytes.
	Hash512Size = 64
)

// Hash256 is a 32-byte SHA-256 digest, used throughout the chain for block
// and nonce hashes.
type Hash256 [Hash256Size]byte

// SHA256 computes the SHA-256 digest of message.
func SHA256(message []byte) Hash256 {
	return sha256.Sum256(message)
}

// SHA256Slice computes SHA-256 and returns it as a slice, for callers that
// don't want the array type.
func SHA256Slice(message []byte) []byte {
	h := sha256.Sum256(message)
	return h[:]
}

// SHA512 computes the 64-byte SHA-512 digest of message.
func SHA512(message []byte) [Hash512Size]byte {
	return sha512.Sum512(message)
}

// SHA512Slice computes SHA-512 and returns it as a slice.
func SHA512Slice(message []byte) []byte {
	h := sha512.Sum512(message)
	return h[:]
}

// NewSHA256 returns a hash.Hash for incremental SHA-256 digests.
func NewSHA256() hash.Hash {
	return sha256.New()
}
