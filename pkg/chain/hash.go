package chain

import "github.com/tde2e/callcore/pkg/crypto"

// SigningMessage returns the exact bytes an ed25519 signature is computed
// and verified over: the boxed block serialization with the signature
// field zeroed.
func SigningMessage(b *Block) ([]byte, error) {
	return EncodeBlock(b, true)
}

// BlockHash returns the 32-byte chain-link hash of b, used as the next
// block's prev_block_hash. Computed over the same zeroed-signature form as
// SigningMessage, so the hash of a block is stable even though ed25519
// signatures are appended after it is otherwise complete.
func BlockHash(b *Block) (crypto.Hash256, error) {
	msg, err := SigningMessage(b)
	if err != nil {
		return crypto.Hash256{}, err
	}
	return crypto.SHA256(msg), nil
}
