package chain

import (
	"github.com/tde2e/callcore/pkg/crypto"
	"github.com/tde2e/callcore/pkg/envelope"
)

const rawGroupKeySize = 32

// GenerateSharedKey creates a fresh 32-byte group symmetric key and wraps
// it for every participant in groupState: an ephemeral X25519 keypair
// agrees a secret with each participant's long-term key, and that secret
// unlocks a per-recipient header carrying the one-time secret that in turn
// unlocks the envelope-encrypted group key. Returns the wire-ready
// GroupSharedKey and the raw key bytes for local use.
func GenerateSharedKey(groupState *GroupState) (*GroupSharedKey, []byte, error) {
	ephemeral, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, nil, err
	}
	rawGroupKey, err := crypto.SecureRandomBytes(rawGroupKeySize)
	if err != nil {
		return nil, nil, err
	}
	oneTimeSecret, err := crypto.SecureRandomBytes(rawGroupKeySize)
	if err != nil {
		return nil, nil, err
	}
	encryptedSharedKey, err := envelope.Encrypt(rawGroupKey, oneTimeSecret)
	if err != nil {
		return nil, nil, err
	}

	destUserID := make([]UserID, 0, len(groupState.Participants))
	destHeader := make([][]byte, 0, len(groupState.Participants))
	for _, p := range groupState.Participants {
		shared, err := crypto.X25519SharedSecret(ephemeral, p.PublicKey)
		if err != nil {
			return nil, nil, err
		}
		header, err := envelope.EncryptHeader(oneTimeSecret, encryptedSharedKey, shared[:])
		if err != nil {
			return nil, nil, err
		}
		destUserID = append(destUserID, p.UserID)
		destHeader = append(destHeader, header)
	}

	return &GroupSharedKey{
		EK:                 ephemeral.Public(),
		EncryptedSharedKey: encryptedSharedKey,
		DestUserID:         destUserID,
		DestHeader:         destHeader,
	}, rawGroupKey, nil
}

// RecoverSharedKey reverses GenerateSharedKey for one participant: it
// agrees the same ECDH secret the sender used for this recipient, unwraps
// that recipient's header to recover the one-time secret, then decrypts
// the raw group key.
func RecoverSharedKey(myPrivate crypto.PrivateKey, myUserID UserID, key *GroupSharedKey) ([]byte, error) {
	index := -1
	for i, id := range key.DestUserID {
		if id == myUserID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, ErrUnknownRecipient
	}

	shared, err := crypto.X25519SharedSecret(myPrivate, key.EK)
	if err != nil {
		return nil, err
	}
	oneTimeSecret, err := envelope.DecryptHeader(key.DestHeader[index], key.EncryptedSharedKey, shared[:])
	if err != nil {
		return nil, err
	}
	return envelope.Decrypt(key.EncryptedSharedKey, oneTimeSecret)
}
