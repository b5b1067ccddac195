package envelope

import "errors"

var (
	// ErrInvalidLength is returned when encrypted input is shorter than the
	// minimum envelope size or not a multiple of the AES block size.
	ErrInvalidLength = errors.New("envelope: invalid encrypted length")

	// ErrMacMismatch is returned when the recovered message id does not
	// match the one carried on the wire, meaning the secret, ciphertext or
	// ordering is wrong.
	ErrMacMismatch = errors.New("envelope: message id mismatch")

	// ErrInvalidPadding is returned when the decrypted prefix-length byte
	// is out of range for the payload it prefixes.
	ErrInvalidPadding = errors.New("envelope: invalid padding prefix")

	// ErrInvalidHeaderSize is returned when a header or its associated
	// message does not match the fixed sizes the header codec requires.
	ErrInvalidHeaderSize = errors.New("envelope: invalid header or message size")
)
