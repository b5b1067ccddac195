// Package envelope implements the symmetric message envelope: prefix
// padding, HMAC-derived message ids, and AES-256-CBC payload encryption
// keyed by per-use HMAC-SHA512 expansion of a caller-supplied secret. It
// also implements the header-wrapping variant used to deliver a one-time
// secret to a single recipient over an already-established shared secret.
//
// Every function here is a pure transform over byte slices; the package
// holds no state and performs no network or storage I/O.
package envelope

import (
	"crypto/subtle"

	"github.com/tde2e/callcore/pkg/crypto"
)

const (
	minPadding  = 16
	msgIDSize   = 16
	headerSize  = 32
	blockSize   = 16
)

// Encrypt pads data with a random prefix and encrypts it for secret. The
// result is safe to send on the wire; Decrypt with the same secret recovers
// the original data.
func Encrypt(data, secret []byte) ([]byte, error) {
	prefix, err := genRandomPrefix(len(data), minPadding)
	if err != nil {
		return nil, err
	}
	combined := make([]byte, 0, len(prefix)+len(data))
	combined = append(combined, prefix...)
	combined = append(combined, data...)
	return encryptWithPrefix(combined, secret)
}

// Decrypt reverses Encrypt. It returns ErrMacMismatch if secret does not
// match what the data was encrypted under, and ErrInvalidPadding if the
// recovered padding length is inconsistent with the decrypted payload.
func Decrypt(encrypted, secret []byte) ([]byte, error) {
	if len(encrypted) < msgIDSize {
		return nil, ErrInvalidLength
	}
	if len(encrypted)%blockSize != 0 {
		return nil, ErrInvalidLength
	}

	encryptSecret, hmacSecret := expandDataSecret(secret)

	msgID := encrypted[:msgIDSize]
	ciphertext := encrypted[msgIDSize:]

	cbcKey, cbcIV := cbcStateFromHash(crypto.HMACSHA512Slice(encryptSecret, msgID))
	decrypted, err := crypto.AES256CBCDecrypt(cbcKey, cbcIV, ciphertext)
	if err != nil {
		return nil, err
	}

	expectedMsgID := crypto.HMACSHA512Slice(hmacSecret, decrypted)[:msgIDSize]
	if subtle.ConstantTimeCompare(expectedMsgID, msgID) != 1 {
		return nil, ErrMacMismatch
	}

	prefixSize := int(decrypted[0])
	if prefixSize > len(decrypted) || prefixSize < minPadding {
		return nil, ErrInvalidPadding
	}
	return decrypted[prefixSize:], nil
}

// EncryptHeader encrypts a 32-byte header (typically a one-time secret) so
// that only a holder of secret and encryptedMessage's first 16 bytes can
// recover it. Used to deliver a group's shared key to one participant at a
// time over a per-recipient ECDH secret.
func EncryptHeader(decryptedHeader, encryptedMessage, secret []byte) ([]byte, error) {
	if len(encryptedMessage) < msgIDSize {
		return nil, ErrInvalidHeaderSize
	}
	if len(decryptedHeader) != headerSize {
		return nil, ErrInvalidHeaderSize
	}
	encryptionKey := expandHeaderKey(secret)
	msgID := encryptedMessage[:msgIDSize]

	cbcKey, cbcIV := cbcStateFromHash(crypto.HMACSHA512Slice(encryptionKey, msgID))
	return crypto.AES256CBCEncrypt(cbcKey, cbcIV, decryptedHeader)
}

// DecryptHeader reverses EncryptHeader.
func DecryptHeader(encryptedHeader, encryptedMessage, secret []byte) ([]byte, error) {
	if len(encryptedMessage) < msgIDSize {
		return nil, ErrInvalidHeaderSize
	}
	if len(encryptedHeader) != headerSize {
		return nil, ErrInvalidHeaderSize
	}
	encryptionKey := expandHeaderKey(secret)
	msgID := encryptedMessage[:msgIDSize]

	cbcKey, cbcIV := cbcStateFromHash(crypto.HMACSHA512Slice(encryptionKey, msgID))
	return crypto.AES256CBCDecrypt(cbcKey, cbcIV, encryptedHeader)
}

func encryptWithPrefix(data, secret []byte) ([]byte, error) {
	if len(data)%blockSize != 0 {
		return nil, ErrInvalidLength
	}
	encryptSecret, hmacSecret := expandDataSecret(secret)

	msgID := crypto.HMACSHA512Slice(hmacSecret, data)[:msgIDSize]

	cbcKey, cbcIV := cbcStateFromHash(crypto.HMACSHA512Slice(encryptSecret, msgID))
	ciphertext, err := crypto.AES256CBCEncrypt(cbcKey, cbcIV, data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, msgIDSize+len(ciphertext))
	out = append(out, msgID...)
	out = append(out, ciphertext...)
	return out, nil
}

// expandDataSecret derives the independent encryption and authentication
// secrets used by Encrypt/Decrypt from the caller's shared secret.
func expandDataSecret(secret []byte) (encryptSecret, hmacSecret []byte) {
	large := crypto.HMACSHA512Slice(secret, []byte("tde2e_encrypt_data"))
	return large[:32], large[32:64]
}

// expandHeaderKey derives the encryption key used by EncryptHeader/
// DecryptHeader from the caller's shared secret.
func expandHeaderKey(secret []byte) []byte {
	large := crypto.HMACSHA512Slice(secret, []byte("tde2e_encrypt_header"))
	return large[:32]
}

// cbcStateFromHash splits a 48+ byte hash into a 32-byte AES-256 key and a
// 16-byte IV.
func cbcStateFromHash(hash []byte) (key, iv []byte) {
	return hash[:32], hash[32:48]
}

// genRandomPrefix builds a random padding prefix whose total length with
// dataSize rounds up to the next multiple of 16, with at least minPad bytes
// of padding. The first byte of the prefix records its own length, which
// Decrypt uses to strip the prefix back off after decryption.
func genRandomPrefix(dataSize, minPad int) ([]byte, error) {
	size := roundedPrefixSize(dataSize, minPad)
	buf, err := crypto.SecureRandomBytes(size)
	if err != nil {
		return nil, err
	}
	buf[0] = byte(size)
	return buf, nil
}

// genDeterministicPrefix is the zero-padding counterpart to
// genRandomPrefix, used when the caller wants reproducible ciphertext for
// testing rather than a fresh random prefix each call.
func genDeterministicPrefix(dataSize, minPad int) []byte {
	size := roundedPrefixSize(dataSize, minPad)
	buf := make([]byte, size)
	buf[0] = byte(size)
	return buf
}

func roundedPrefixSize(dataSize, minPad int) int {
	total := (minPad + blockSize - 1 + dataSize) &^ (blockSize - 1)
	return total - dataSize
}
