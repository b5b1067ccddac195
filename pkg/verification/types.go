// Package verification implements the commit/reveal nonce exchange that
// runs on top of each accepted main block and derives a short verification
// code (an "emoji hash" and its four-word rendering) that participants can
// compare out of band to detect a man-in-the-middle.
package verification

import "github.com/tde2e/callcore/pkg/crypto"

// State is the phase of the commit/reveal exchange for the current main
// block.
type State int

const (
	// StateCommit is the initial phase: waiting for every participant's
	// NonceCommit.
	StateCommit State = iota
	// StateReveal is entered once all commits are in: waiting for every
	// participant's NonceReveal.
	StateReveal
	// StateEnd is entered once all reveals are in and emoji_hash is final.
	StateEnd
)

func (s State) String() string {
	switch s {
	case StateCommit:
		return "commit"
	case StateReveal:
		return "reveal"
	case StateEnd:
		return "end"
	default:
		return "unknown"
	}
}

// NonceCommit is the first broadcast of the exchange: a signer commits to
// a nonce without revealing it, by broadcasting its hash.
type NonceCommit struct {
	Signature   crypto.Signature
	PublicKey   crypto.PublicKey
	ChainHeight int32
	NonceHash   crypto.Hash256
}

// NonceReveal is the second broadcast: a signer reveals the nonce it
// committed to earlier.
type NonceReveal struct {
	Signature   crypto.Signature
	PublicKey   crypto.PublicKey
	ChainHeight int32
	Nonce       crypto.Hash256
}
