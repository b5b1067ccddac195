package chain

import (
	"testing"

	"github.com/tde2e/callcore/pkg/crypto"
)

func genesisChanges(t *testing.T, alice GroupParticipant) ([]Change, *GroupState, *GroupSharedKey) {
	t.Helper()
	state := &GroupState{Participants: []GroupParticipant{alice}}
	sharedKey, _, err := GenerateSharedKey(state)
	if err != nil {
		t.Fatalf("GenerateSharedKey: %v", err)
	}
	return []Change{
		NewSetGroupStateChange(state),
		NewSetSharedKeyChange(sharedKey),
	}, state, sharedKey
}

func TestBuildAndValidateGenesis(t *testing.T) {
	alice, aliceSK := testParticipant(t, 1, PermissionAddUsers|PermissionRemoveUsers)
	changes, _, _ := genesisChanges(t, alice)

	block, newState, err := BuildBlock(aliceSK, EmptyState(), changes)
	if err != nil {
		t.Fatalf("BuildBlock: %v", err)
	}
	if newState.Height != 0 {
		t.Fatalf("height = %d, want 0", newState.Height)
	}

	gotState, err := ValidateAndApply(EmptyState(), block)
	if err != nil {
		t.Fatalf("ValidateAndApply: %v", err)
	}
	if gotState.Height != 0 {
		t.Errorf("validated height = %d, want 0", gotState.Height)
	}
	if !gotState.GroupState.Equal(newState.GroupState) {
		t.Errorf("validated group state differs from built state")
	}
}

func TestGenesisRejectsWrongHeight(t *testing.T) {
	alice, aliceSK := testParticipant(t, 1, PermissionAddUsers|PermissionRemoveUsers)
	changes, _, _ := genesisChanges(t, alice)
	block, _, err := BuildBlock(aliceSK, EmptyState(), changes)
	if err != nil {
		t.Fatalf("BuildBlock: %v", err)
	}
	block.Height = 1

	if _, err := ValidateAndApply(EmptyState(), block); err != ErrHeightMismatch {
		t.Errorf("got %v, want ErrHeightMismatch", err)
	}
}

func TestGenesisRejectsTamperedSignature(t *testing.T) {
	alice, aliceSK := testParticipant(t, 1, PermissionAddUsers|PermissionRemoveUsers)
	changes, _, _ := genesisChanges(t, alice)
	block, _, err := BuildBlock(aliceSK, EmptyState(), changes)
	if err != nil {
		t.Fatalf("BuildBlock: %v", err)
	}
	block.Signature[0] ^= 0x01

	if _, err := ValidateAndApply(EmptyState(), block); err != ErrBadSignature {
		t.Errorf("got %v, want ErrBadSignature", err)
	}
}

func TestAddParticipantBlock(t *testing.T) {
	alice, aliceSK := testParticipant(t, 1, PermissionAddUsers|PermissionRemoveUsers)
	changes, state, _ := genesisChanges(t, alice)
	genesisBlock, genesisState, err := BuildBlock(aliceSK, EmptyState(), changes)
	if err != nil {
		t.Fatalf("BuildBlock(genesis): %v", err)
	}
	if _, err := ValidateAndApply(EmptyState(), genesisBlock); err != nil {
		t.Fatalf("ValidateAndApply(genesis): %v", err)
	}

	bob, _ := testParticipant(t, 2, 0)
	newGroupState := WithParticipant(state, bob)
	newSharedKey, _, err := GenerateSharedKey(newGroupState)
	if err != nil {
		t.Fatalf("GenerateSharedKey: %v", err)
	}
	addChanges := []Change{
		NewSetGroupStateChange(newGroupState),
		NewSetSharedKeyChange(newSharedKey),
	}

	addBlock, newState, err := BuildBlock(aliceSK, genesisState, addChanges)
	if err != nil {
		t.Fatalf("BuildBlock(add): %v", err)
	}
	if newState.Height != 1 {
		t.Fatalf("height = %d, want 1", newState.Height)
	}
	if len(newState.GroupState.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(newState.GroupState.Participants))
	}

	gotState, err := ValidateAndApply(genesisState, addBlock)
	if err != nil {
		t.Fatalf("ValidateAndApply(add): %v", err)
	}
	if !gotState.GroupState.Equal(newState.GroupState) {
		t.Errorf("validated add-participant state differs from built state")
	}
}

func TestAddParticipantRequiresPermission(t *testing.T) {
	alice, aliceSK := testParticipant(t, 1, 0) // no add/remove rights
	changes, state, _ := genesisChanges(t, alice)
	genesisBlock, genesisState, err := BuildBlock(aliceSK, EmptyState(), changes)
	if err != nil {
		t.Fatalf("BuildBlock(genesis): %v", err)
	}
	if _, err := ValidateAndApply(EmptyState(), genesisBlock); err != nil {
		t.Fatalf("ValidateAndApply(genesis): %v", err)
	}

	bob, _ := testParticipant(t, 2, 0)
	newGroupState := WithParticipant(state, bob)
	newSharedKey, _, err := GenerateSharedKey(newGroupState)
	if err != nil {
		t.Fatalf("GenerateSharedKey: %v", err)
	}
	addChanges := []Change{
		NewSetGroupStateChange(newGroupState),
		NewSetSharedKeyChange(newSharedKey),
	}

	if _, _, err := BuildBlock(aliceSK, genesisState, addChanges); err != ErrPermissionDenied {
		t.Errorf("got %v, want ErrPermissionDenied", err)
	}
}

func TestHeightMismatchRejectsReplay(t *testing.T) {
	alice, aliceSK := testParticipant(t, 1, PermissionAddUsers|PermissionRemoveUsers)
	changes, _, _ := genesisChanges(t, alice)
	genesisBlock, genesisState, err := BuildBlock(aliceSK, EmptyState(), changes)
	if err != nil {
		t.Fatalf("BuildBlock(genesis): %v", err)
	}
	if _, err := ValidateAndApply(EmptyState(), genesisBlock); err != nil {
		t.Fatalf("ValidateAndApply(genesis): %v", err)
	}
	if _, err := ValidateAndApply(genesisState, genesisBlock); err != ErrHeightMismatch {
		t.Errorf("replaying genesis block: got %v, want ErrHeightMismatch", err)
	}
}

func TestSharedKeyRoundTrip(t *testing.T) {
	alice, aliceSK := testParticipant(t, 1, PermissionAddUsers|PermissionRemoveUsers)
	bob, bobSK := testParticipant(t, 2, 0)
	state := &GroupState{Participants: []GroupParticipant{alice, bob}}

	sharedKey, rawKey, err := GenerateSharedKey(state)
	if err != nil {
		t.Fatalf("GenerateSharedKey: %v", err)
	}

	gotAlice, err := RecoverSharedKey(aliceSK, alice.UserID, sharedKey)
	if err != nil {
		t.Fatalf("RecoverSharedKey(alice): %v", err)
	}
	if string(gotAlice) != string(rawKey) {
		t.Errorf("alice recovered key mismatch")
	}

	gotBob, err := RecoverSharedKey(bobSK, bob.UserID, sharedKey)
	if err != nil {
		t.Fatalf("RecoverSharedKey(bob): %v", err)
	}
	if string(gotBob) != string(rawKey) {
		t.Errorf("bob recovered key mismatch")
	}
}

func TestSharedKeyRecoveryUnknownUser(t *testing.T) {
	alice, _ := testParticipant(t, 1, 0)
	state := &GroupState{Participants: []GroupParticipant{alice}}
	sharedKey, _, err := GenerateSharedKey(state)
	if err != nil {
		t.Fatalf("GenerateSharedKey: %v", err)
	}
	strangerSK, _ := crypto.GeneratePrivateKey()
	if _, err := RecoverSharedKey(strangerSK, UserID(99), sharedKey); err != ErrUnknownRecipient {
		t.Errorf("got %v, want ErrUnknownRecipient", err)
	}
}
