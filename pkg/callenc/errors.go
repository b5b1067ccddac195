package callenc

import "errors"

var (
	// ErrSeqnoOverflow is returned when a local epoch's seqno counter would
	// wrap past its 32-bit range.
	ErrSeqnoOverflow = errors.New("callenc: seqno overflow")
	// ErrUnknownEpoch is returned when encrypting with no current epoch, or
	// decrypting a ciphertext whose epoch prefix names one this manager has
	// never seen or has already expired.
	ErrUnknownEpoch = errors.New("callenc: unknown epoch")
	// ErrUnknownSender is returned when a decrypted payload's user id is not
	// a member of that epoch's group state.
	ErrUnknownSender = errors.New("callenc: unknown sender")
	// ErrBadSignature is returned when the payload's signature does not
	// verify under the claimed sender's public key.
	ErrBadSignature = errors.New("callenc: bad payload signature")
	// ErrTooOld is returned when a seqno lies replayWindowSize (1024) or
	// more below the highest seqno already accepted from that sender in
	// that epoch. A seqno below every accepted one but still inside that
	// window is not rejected as too old; it is accepted if not yet seen.
	ErrTooOld = errors.New("callenc: seqno too old")
	// ErrReplayed is returned when a seqno has already been accepted from
	// that sender.
	ErrReplayed = errors.New("callenc: seqno replayed")
	// ErrMalformedCiphertext is returned for a ciphertext too short to carry
	// an epoch prefix, or whose decrypted body cannot be parsed.
	ErrMalformedCiphertext = errors.New("callenc: malformed ciphertext")
)
