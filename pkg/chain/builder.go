package chain

import "github.com/tde2e/callcore/pkg/crypto"

// BuildBlock applies changes on top of state as signer would, producing a
// fully signed Block and the State that results from accepting it. The
// returned block is already valid against ValidateAndApply(state, block).
func BuildBlock(signer crypto.PrivateKey, state *State, changes []Change) (*Block, *State, error) {
	isGenesis := state.Height == NoBlocksHeight
	signerPK := signer.Public()

	var groupState *GroupState
	var sharedKey *GroupSharedKey
	var err error
	if isGenesis {
		groupState, sharedKey, err = applyChangesUnchecked(nil, nil, changes)
		if err == nil && (groupState == nil || groupState.FindByPublicKey(signerPK) == nil) {
			err = ErrUnknownSigner
		}
	} else {
		member := state.GroupState.FindByPublicKey(signerPK)
		if member == nil {
			return nil, nil, ErrUnknownSigner
		}
		groupState, sharedKey, err = applyChangesChecked(state, *member, changes)
	}
	if err != nil {
		return nil, nil, err
	}

	var prevHash crypto.Hash256
	var prevKVHash crypto.Hash256
	height := int32(0)
	if !isGenesis {
		prevHash = state.LastBlockHash
		prevKVHash = state.LastKVHash
		height = state.Height + 1
	}

	kvHash, err := computeKVHash(prevKVHash, changes)
	if err != nil {
		return nil, nil, err
	}

	proof := StateProof{KVHash: kvHash}
	if changeKindPresent(changes, ChangeSetGroupState) {
		proof.GroupState = groupState
	}
	if changeKindPresent(changes, ChangeSetSharedKey) {
		proof.SharedKey = sharedKey
	}

	block := &Block{
		PrevBlockHash: prevHash,
		Changes:       changes,
		Height:        height,
		StateProof:    proof,
	}
	if isGenesis {
		block.SignaturePublicKey = &signerPK
	}

	msg, err := SigningMessage(block)
	if err != nil {
		return nil, nil, err
	}
	block.Signature = crypto.Sign(signer, msg)

	blockHash, err := BlockHash(block)
	if err != nil {
		return nil, nil, err
	}

	newState := &State{
		Height:        height,
		LastBlockHash: blockHash,
		LastKVHash:    kvHash,
		GroupState:    groupState,
		SharedKey:     sharedKey,
	}
	return block, newState, nil
}

// withParticipant returns a copy of state's participant list with any
// existing entry for id removed and participant appended, used by
// higher-level self-add/self-update block construction.
func withParticipant(state *GroupState, participant GroupParticipant) []GroupParticipant {
	out := make([]GroupParticipant, 0, len(state.Participants)+1)
	for _, p := range state.Participants {
		if p.UserID != participant.UserID {
			out = append(out, p)
		}
	}
	out = append(out, participant)
	return out
}

// WithParticipant is the exported form of withParticipant, used by the
// call facade to build a SetGroupState change that adds or replaces a
// single participant by user id.
func WithParticipant(state *GroupState, participant GroupParticipant) *GroupState {
	return &GroupState{
		Participants:        withParticipant(state, participant),
		ExternalPermissions: state.ExternalPermissions,
	}
}
