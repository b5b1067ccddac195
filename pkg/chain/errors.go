package chain

import "errors"

// Block-validation errors, returned by Blockchain.Apply and the builder.
var (
	ErrParseError          = errors.New("chain: malformed TL")
	ErrHeightMismatch      = errors.New("chain: unexpected block height")
	ErrHashMismatch        = errors.New("chain: prev_block_hash mismatch")
	ErrStateProofMismatch  = errors.New("chain: state proof mismatch")
	ErrPermissionDenied    = errors.New("chain: signer lacks required permission")
	ErrUnknownSigner       = errors.New("chain: signer is not a group member")
	ErrBadSignature        = errors.New("chain: bad block signature")
	ErrMalformedChange      = errors.New("chain: malformed change")
	ErrDuplicateParticipant = errors.New("chain: duplicate participant")

	// ErrUnknownRecipient is returned when recovering a shared key for a
	// user id that is not among the key's destination list.
	ErrUnknownRecipient = errors.New("chain: user id not a shared key recipient")
)
