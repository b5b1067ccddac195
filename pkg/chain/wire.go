package chain

import (
	"github.com/tde2e/callcore/pkg/crypto"
	"github.com/tde2e/callcore/pkg/tl"
)

func encodeGroupParticipant(w *tl.Writer, p GroupParticipant) {
	w.Magic(tl.MagicGroupParticipant)
	w.Int64(int64(p.UserID))
	w.Fixed(p.PublicKey[:])
	w.Int32(p.Permissions)
	w.Int32(p.Version)
}

func decodeGroupParticipant(r *tl.Reader) (GroupParticipant, error) {
	var p GroupParticipant
	if err := r.Magic(tl.MagicGroupParticipant); err != nil {
		return p, err
	}
	userID, err := r.Int64()
	if err != nil {
		return p, err
	}
	pkBytes, err := r.Fixed(crypto.PublicKeySize)
	if err != nil {
		return p, err
	}
	perms, err := r.Int32()
	if err != nil {
		return p, err
	}
	version, err := r.Int32()
	if err != nil {
		return p, err
	}
	p.UserID = UserID(userID)
	copy(p.PublicKey[:], pkBytes)
	p.Permissions = perms
	p.Version = version
	return p, nil
}

func encodeGroupState(w *tl.Writer, s *GroupState) {
	w.Magic(tl.MagicGroupState)
	w.VectorHeader(len(s.Participants))
	for _, p := range s.Participants {
		encodeGroupParticipant(w, p)
	}
	w.Int32(s.ExternalPermissions)
}

func decodeGroupState(r *tl.Reader) (*GroupState, error) {
	if err := r.Magic(tl.MagicGroupState); err != nil {
		return nil, err
	}
	count, err := r.VectorHeader()
	if err != nil {
		return nil, err
	}
	participants := make([]GroupParticipant, count)
	for i := 0; i < count; i++ {
		p, err := decodeGroupParticipant(r)
		if err != nil {
			return nil, err
		}
		participants[i] = p
	}
	extPerms, err := r.Int32()
	if err != nil {
		return nil, err
	}
	return &GroupState{Participants: participants, ExternalPermissions: extPerms}, nil
}

func encodeSharedKey(w *tl.Writer, k *GroupSharedKey) {
	w.Magic(tl.MagicSharedKey)
	w.Fixed(k.EK[:])
	w.PutBytes(k.EncryptedSharedKey)
	w.VectorHeader(len(k.DestUserID))
	for _, id := range k.DestUserID {
		w.Int64(int64(id))
	}
	w.VectorHeader(len(k.DestHeader))
	for _, h := range k.DestHeader {
		w.PutBytes(h)
	}
}

func decodeSharedKey(r *tl.Reader) (*GroupSharedKey, error) {
	if err := r.Magic(tl.MagicSharedKey); err != nil {
		return nil, err
	}
	ekBytes, err := r.Fixed(crypto.PublicKeySize)
	if err != nil {
		return nil, err
	}
	encryptedKey, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	userCount, err := r.VectorHeader()
	if err != nil {
		return nil, err
	}
	destUserID := make([]UserID, userCount)
	for i := 0; i < userCount; i++ {
		id, err := r.Int64()
		if err != nil {
			return nil, err
		}
		destUserID[i] = UserID(id)
	}
	headerCount, err := r.VectorHeader()
	if err != nil {
		return nil, err
	}
	destHeader := make([][]byte, headerCount)
	for i := 0; i < headerCount; i++ {
		h, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		destHeader[i] = h
	}
	var k GroupSharedKey
	copy(k.EK[:], ekBytes)
	k.EncryptedSharedKey = encryptedKey
	k.DestUserID = destUserID
	k.DestHeader = destHeader
	return &k, nil
}

func encodeChange(w *tl.Writer, c Change) error {
	switch c.Kind {
	case ChangeNoop:
		w.Magic(tl.MagicChangeNoop)
		w.Fixed(c.Nonce[:])
	case ChangeSetValue:
		w.Magic(tl.MagicChangeSetValue)
		w.PutBytes(c.Key)
		w.PutBytes(c.Value)
	case ChangeSetGroupState:
		w.Magic(tl.MagicChangeSetGroupState)
		encodeGroupState(w, c.GroupState)
	case ChangeSetSharedKey:
		w.Magic(tl.MagicChangeSetSharedKey)
		encodeSharedKey(w, c.SharedKey)
	default:
		return ErrMalformedChange
	}
	return nil
}

func decodeChange(r *tl.Reader) (Change, error) {
	magic, err := r.PeekMagic()
	if err != nil {
		return Change{}, err
	}
	switch magic {
	case tl.MagicChangeNoop:
		if err := r.Magic(tl.MagicChangeNoop); err != nil {
			return Change{}, err
		}
		nonceBytes, err := r.Fixed(crypto.Hash256Size)
		if err != nil {
			return Change{}, err
		}
		var nonce crypto.Hash256
		copy(nonce[:], nonceBytes)
		return NewNoopChange(nonce), nil
	case tl.MagicChangeSetValue:
		if err := r.Magic(tl.MagicChangeSetValue); err != nil {
			return Change{}, err
		}
		key, err := r.Bytes()
		if err != nil {
			return Change{}, err
		}
		value, err := r.Bytes()
		if err != nil {
			return Change{}, err
		}
		return Change{Kind: ChangeSetValue, Key: key, Value: value}, nil
	case tl.MagicChangeSetGroupState:
		if err := r.Magic(tl.MagicChangeSetGroupState); err != nil {
			return Change{}, err
		}
		state, err := decodeGroupState(r)
		if err != nil {
			return Change{}, err
		}
		return NewSetGroupStateChange(state), nil
	case tl.MagicChangeSetSharedKey:
		if err := r.Magic(tl.MagicChangeSetSharedKey); err != nil {
			return Change{}, err
		}
		key, err := decodeSharedKey(r)
		if err != nil {
			return Change{}, err
		}
		return NewSetSharedKeyChange(key), nil
	default:
		return Change{}, ErrMalformedChange
	}
}

func encodeStateProof(w *tl.Writer, p StateProof) {
	flags := int32(0)
	if p.GroupState != nil {
		flags |= stateProofFlagGroupState
	}
	if p.SharedKey != nil {
		flags |= stateProofFlagSharedKey
	}
	w.Magic(tl.MagicStateProof)
	w.Int32(flags)
	w.Fixed(p.KVHash[:])
	if p.GroupState != nil {
		encodeGroupState(w, p.GroupState)
	}
	if p.SharedKey != nil {
		encodeSharedKey(w, p.SharedKey)
	}
}

func decodeStateProof(r *tl.Reader) (StateProof, error) {
	var p StateProof
	if err := r.Magic(tl.MagicStateProof); err != nil {
		return p, err
	}
	flags, err := r.Int32()
	if err != nil {
		return p, err
	}
	kvHashBytes, err := r.Fixed(crypto.Hash256Size)
	if err != nil {
		return p, err
	}
	copy(p.KVHash[:], kvHashBytes)
	if flags&stateProofFlagGroupState != 0 {
		state, err := decodeGroupState(r)
		if err != nil {
			return p, err
		}
		p.GroupState = state
	}
	if flags&stateProofFlagSharedKey != 0 {
		key, err := decodeSharedKey(r)
		if err != nil {
			return p, err
		}
		p.SharedKey = key
	}
	return p, nil
}

// EncodeBlock serializes b as a boxed e2e.chain.block structure. If
// zeroSignature is true, the 64-byte signature field is written as all
// zeros instead of b.Signature; this is the form signed and the form
// hashed to produce the chain-link hash (see BlockHash).
func EncodeBlock(b *Block, zeroSignature bool) ([]byte, error) {
	w := tl.NewWriter()
	w.Magic(tl.MagicBlock)
	if zeroSignature {
		var zero crypto.Signature
		w.Fixed(zero[:])
	} else {
		w.Fixed(b.Signature[:])
	}
	flags := int32(0)
	if b.SignaturePublicKey != nil {
		flags |= blockFlagHasSignaturePublicKey
	}
	w.Int32(flags)
	w.Fixed(b.PrevBlockHash[:])
	w.VectorHeader(len(b.Changes))
	for _, c := range b.Changes {
		if err := encodeChange(w, c); err != nil {
			return nil, err
		}
	}
	w.Int32(b.Height)
	encodeStateProof(w, b.StateProof)
	if b.SignaturePublicKey != nil {
		w.Fixed(b.SignaturePublicKey[:])
	}
	return w.Bytes(), nil
}

// DecodeBlock parses a boxed e2e.chain.block structure.
func DecodeBlock(data []byte) (*Block, error) {
	r := tl.NewReader(data)
	if err := r.Magic(tl.MagicBlock); err != nil {
		return nil, ErrParseError
	}
	sigBytes, err := r.Fixed(crypto.SignatureSize)
	if err != nil {
		return nil, ErrParseError
	}
	flags, err := r.Int32()
	if err != nil {
		return nil, ErrParseError
	}
	prevHashBytes, err := r.Fixed(crypto.Hash256Size)
	if err != nil {
		return nil, ErrParseError
	}
	changeCount, err := r.VectorHeader()
	if err != nil {
		return nil, ErrParseError
	}
	changes := make([]Change, changeCount)
	for i := 0; i < changeCount; i++ {
		c, err := decodeChange(r)
		if err != nil {
			return nil, ErrParseError
		}
		changes[i] = c
	}
	height, err := r.Int32()
	if err != nil {
		return nil, ErrParseError
	}
	proof, err := decodeStateProof(r)
	if err != nil {
		return nil, ErrParseError
	}
	var signaturePublicKey *crypto.PublicKey
	if flags&blockFlagHasSignaturePublicKey != 0 {
		pkBytes, err := r.Fixed(crypto.PublicKeySize)
		if err != nil {
			return nil, ErrParseError
		}
		var pk crypto.PublicKey
		copy(pk[:], pkBytes)
		signaturePublicKey = &pk
	}
	if err := r.Done(); err != nil {
		return nil, ErrParseError
	}

	b := &Block{
		Changes:            changes,
		Height:             height,
		StateProof:         proof,
		SignaturePublicKey: signaturePublicKey,
	}
	copy(b.Signature[:], sigBytes)
	copy(b.PrevBlockHash[:], prevHashBytes)
	return b, nil
}
