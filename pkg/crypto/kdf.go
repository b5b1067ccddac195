package crypto

import (
	"crypto/sha512"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2SHA512 derives keyLen bytes from password using PBKDF2-HMAC-SHA512.
// The call core itself never invokes this directly, but the facade exposes
// it for callers that need to derive a call key from a shared passcode.
func PBKDF2SHA512(password, salt []byte, iterations, keyLen int) []byte {
	return pbkdf2.Key(password, salt, iterations, keyLen, sha512.New)
}
