package crypto

import (
	"crypto/hmac"
	"crypto/sha512"
	"hash"
)

// HMACSHA512 computes the HMAC-SHA512 of message under key. Returns a
// 64-byte MAC.
func HMACSHA512(key, message []byte) [Hash512Size]byte {
	h := hmac.New(sha512.New, key)
	h.Write(message)
	var result [Hash512Size]byte
	copy(result[:], h.Sum(nil))
	return result
}

// HMACSHA512Slice computes HMAC-SHA512 and returns it as a slice.
func HMACSHA512Slice(key, message []byte) []byte {
	h := hmac.New(sha512.New, key)
	h.Write(message)
	return h.Sum(nil)
}

// NewHMACSHA512 returns a hash.Hash for incremental HMAC-SHA512.
func NewHMACSHA512(key []byte) hash.Hash {
	return hmac.New(sha512.New, key)
}

// HMACEqual compares two MACs in constant time. Use this instead of
// bytes.Equal for anything derived from key material.
func HMACEqual(mac1, mac2 []byte) bool {
	return hmac.Equal(mac1, mac2)
}

// CombineSecrets implements the "combine" step used by the verification
// chain's emoji hash: HMAC_SHA512(a, b)[0:32].
func CombineSecrets(a, b []byte) [Hash256Size]byte {
	full := HMACSHA512(a, b)
	var out [Hash256Size]byte
	copy(out[:], full[:Hash256Size])
	return out
}
