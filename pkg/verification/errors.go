package verification

import "errors"

var (
	// ErrNonceHashMismatch is returned when a NonceReveal's nonce does not
	// hash to the nonce_hash recorded by the matching NonceCommit.
	ErrNonceHashMismatch = errors.New("verification: nonce hash mismatch")
	// ErrDuplicateBroadcast is returned for a second commit or reveal from
	// the same signer in the same phase.
	ErrDuplicateBroadcast = errors.New("verification: duplicate broadcast")
	// ErrUnknownBroadcastSigner is returned when a broadcast's public key is
	// not a member of the current group state.
	ErrUnknownBroadcastSigner = errors.New("verification: unknown broadcast signer")
	// ErrWrongVerificationState is returned when a broadcast arrives for a
	// phase the chain is not currently in (e.g. a commit after Reveal).
	ErrWrongVerificationState = errors.New("verification: broadcast received in wrong state")
	// ErrBadSignature is returned when a broadcast's signature does not
	// verify under its claimed public key.
	ErrBadSignature = errors.New("verification: bad broadcast signature")
	// ErrParseError is returned for a malformed broadcast.
	ErrParseError = errors.New("verification: malformed broadcast")
	// ErrBroadcastBufferFull is returned when a broadcast declares a height
	// too far beyond the current one to buffer safely.
	ErrBroadcastBufferFull = errors.New("verification: buffered height too far ahead")
)
