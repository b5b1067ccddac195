package chain

import "github.com/tde2e/callcore/pkg/crypto"

// State is the chain's current accepted position: the height and hash of
// the last accepted block, the cumulative key-value hash those blocks
// produced, and the live group state and shared key snapshots.
type State struct {
	Height        int32
	LastBlockHash crypto.Hash256
	LastKVHash    crypto.Hash256
	GroupState    *GroupState
	SharedKey     *GroupSharedKey
}

// NoBlocksHeight is the sentinel Height of a State with no accepted
// blocks yet, before a genesis has been applied.
const NoBlocksHeight int32 = -1

// EmptyState is the starting point for a fresh chain: no blocks, no
// members, the zero hash.
func EmptyState() *State {
	return &State{Height: NoBlocksHeight}
}

// ValidateAndApply checks block against the current state and, on success,
// returns the new state. state is never mutated; on error the caller's
// state remains valid and unchanged.
func ValidateAndApply(state *State, block *Block) (*State, error) {
	if err := checkHeightAndLink(state, block); err != nil {
		return nil, err
	}

	msg, err := SigningMessage(block)
	if err != nil {
		return nil, ErrParseError
	}

	if block.IsGenesis() {
		return applyGenesis(block, msg)
	}
	return applySuccessor(state, block, msg)
}

func checkHeightAndLink(state *State, block *Block) error {
	if state.Height == NoBlocksHeight {
		if block.Height != 0 {
			return ErrHeightMismatch
		}
		var zero crypto.Hash256
		if block.PrevBlockHash != zero {
			return ErrHashMismatch
		}
		return nil
	}
	if block.Height != state.Height+1 {
		return ErrHeightMismatch
	}
	if block.PrevBlockHash != state.LastBlockHash {
		return ErrHashMismatch
	}
	return nil
}

func applyGenesis(block *Block, msg []byte) (*State, error) {
	if block.SignaturePublicKey == nil {
		return nil, ErrUnknownSigner
	}
	signerPK := *block.SignaturePublicKey
	if err := crypto.Verify(signerPK, msg, block.Signature); err != nil {
		return nil, ErrBadSignature
	}

	newGroupState, newSharedKey, err := applyChangesUnchecked(nil, nil, block.Changes)
	if err != nil {
		return nil, err
	}
	if newGroupState == nil || newGroupState.FindByPublicKey(signerPK) == nil {
		return nil, ErrUnknownSigner
	}

	kvHash, err := computeKVHash(crypto.Hash256{}, block.Changes)
	if err != nil {
		return nil, err
	}
	if err := verifyStateProof(block, kvHash, newGroupState, newSharedKey); err != nil {
		return nil, err
	}

	blockHash, err := BlockHash(block)
	if err != nil {
		return nil, err
	}
	return &State{
		Height:        block.Height,
		LastBlockHash: blockHash,
		LastKVHash:    kvHash,
		GroupState:    newGroupState,
		SharedKey:     newSharedKey,
	}, nil
}

func applySuccessor(state *State, block *Block, msg []byte) (*State, error) {
	if state.GroupState == nil {
		return nil, ErrUnknownSigner
	}
	var signer *GroupParticipant
	for i := range state.GroupState.Participants {
		p := &state.GroupState.Participants[i]
		if crypto.Verify(p.PublicKey, msg, block.Signature) == nil {
			signer = p
			break
		}
	}
	if signer == nil {
		return nil, ErrUnknownSigner
	}

	newGroupState, newSharedKey, err := applyChangesChecked(state, *signer, block.Changes)
	if err != nil {
		return nil, err
	}

	kvHash, err := computeKVHash(state.LastKVHash, block.Changes)
	if err != nil {
		return nil, err
	}
	if err := verifyStateProof(block, kvHash, newGroupState, newSharedKey); err != nil {
		return nil, err
	}

	blockHash, err := BlockHash(block)
	if err != nil {
		return nil, err
	}
	return &State{
		Height:        block.Height,
		LastBlockHash: blockHash,
		LastKVHash:    kvHash,
		GroupState:    newGroupState,
		SharedKey:     newSharedKey,
	}, nil
}

// applyChangesUnchecked applies changes without any permission checking,
// used only for the genesis block where no prior state constrains it.
func applyChangesUnchecked(groupState *GroupState, sharedKey *GroupSharedKey, changes []Change) (*GroupState, *GroupSharedKey, error) {
	for _, c := range changes {
		switch c.Kind {
		case ChangeNoop, ChangeSetValue:
			// No state effect beyond the KV hash.
		case ChangeSetGroupState:
			if c.GroupState == nil {
				return nil, nil, ErrMalformedChange
			}
			if err := checkNoDuplicates(c.GroupState); err != nil {
				return nil, nil, err
			}
			groupState = c.GroupState
		case ChangeSetSharedKey:
			if c.SharedKey == nil {
				return nil, nil, ErrMalformedChange
			}
			if groupState == nil {
				return nil, nil, ErrMalformedChange
			}
			if err := checkSharedKeyShape(c.SharedKey, groupState); err != nil {
				return nil, nil, err
			}
			sharedKey = c.SharedKey
		default:
			return nil, nil, ErrMalformedChange
		}
	}
	return groupState, sharedKey, nil
}

// applyChangesChecked applies changes to a copy of state's group state and
// shared key, enforcing signer permissions on every SetGroupState change.
func applyChangesChecked(state *State, signer GroupParticipant, changes []Change) (*GroupState, *GroupSharedKey, error) {
	groupState := state.GroupState
	sharedKey := state.SharedKey
	for _, c := range changes {
		switch c.Kind {
		case ChangeNoop, ChangeSetValue:
			// No state effect beyond the KV hash.
		case ChangeSetGroupState:
			if c.GroupState == nil {
				return nil, nil, ErrMalformedChange
			}
			if err := checkNoDuplicates(c.GroupState); err != nil {
				return nil, nil, err
			}
			if err := checkMembershipDiffPermission(groupState, c.GroupState, signer); err != nil {
				return nil, nil, err
			}
			groupState = c.GroupState
		case ChangeSetSharedKey:
			if c.SharedKey == nil {
				return nil, nil, ErrMalformedChange
			}
			if groupState == nil {
				return nil, nil, ErrMalformedChange
			}
			if err := checkSharedKeyShape(c.SharedKey, groupState); err != nil {
				return nil, nil, err
			}
			sharedKey = c.SharedKey
		default:
			return nil, nil, ErrMalformedChange
		}
	}
	return groupState, sharedKey, nil
}

func checkNoDuplicates(state *GroupState) error {
	seenKeys := make(map[crypto.PublicKey]struct{}, len(state.Participants))
	seenIDs := make(map[UserID]struct{}, len(state.Participants))
	for _, p := range state.Participants {
		if _, ok := seenKeys[p.PublicKey]; ok {
			return ErrDuplicateParticipant
		}
		seenKeys[p.PublicKey] = struct{}{}
		if _, ok := seenIDs[p.UserID]; ok {
			return ErrDuplicateParticipant
		}
		seenIDs[p.UserID] = struct{}{}
	}
	return nil
}

func checkMembershipDiffPermission(oldState, newState *GroupState, signer GroupParticipant) error {
	var addedAny, removedAny bool
	if oldState != nil {
		for _, p := range oldState.Participants {
			if newState.FindByPublicKey(p.PublicKey) == nil {
				removedAny = true
			}
		}
	}
	for _, p := range newState.Participants {
		if oldState == nil || oldState.FindByPublicKey(p.PublicKey) == nil {
			addedAny = true
		}
	}
	if addedAny && !signer.hasPermission(PermissionAddUsers) {
		return ErrPermissionDenied
	}
	if removedAny && !signer.hasPermission(PermissionRemoveUsers) {
		return ErrPermissionDenied
	}
	return nil
}

func checkSharedKeyShape(key *GroupSharedKey, groupState *GroupState) error {
	n := len(groupState.Participants)
	if len(key.DestUserID) != n || len(key.DestHeader) != n {
		return ErrMalformedChange
	}
	for i, p := range groupState.Participants {
		if key.DestUserID[i] != p.UserID {
			return ErrMalformedChange
		}
		if len(key.DestHeader[i]) != 32 {
			return ErrMalformedChange
		}
	}
	return nil
}

func verifyStateProof(block *Block, kvHash crypto.Hash256, groupState *GroupState, sharedKey *GroupSharedKey) error {
	proof := block.StateProof
	if proof.KVHash != kvHash {
		return ErrStateProofMismatch
	}

	hasGroupStateChange := changeKindPresent(block.Changes, ChangeSetGroupState)
	if hasGroupStateChange != (proof.GroupState != nil) {
		return ErrStateProofMismatch
	}
	if proof.GroupState != nil && !proof.GroupState.Equal(groupState) {
		return ErrStateProofMismatch
	}

	hasSharedKeyChange := changeKindPresent(block.Changes, ChangeSetSharedKey)
	if hasSharedKeyChange != (proof.SharedKey != nil) {
		return ErrStateProofMismatch
	}
	if proof.SharedKey != nil && !proof.SharedKey.Equal(sharedKey) {
		return ErrStateProofMismatch
	}
	return nil
}

func changeKindPresent(changes []Change, kind ChangeKind) bool {
	for _, c := range changes {
		if c.Kind == kind {
			return true
		}
	}
	return false
}
