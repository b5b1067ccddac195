// Package chain implements the append-only signed blockchain that carries
// group membership and shared-key changes: the wire types, TL
// serialization, block validation and block building.
package chain

import "github.com/tde2e/callcore/pkg/crypto"

// UserID is an opaque 64-bit participant identifier; the chain never
// interprets it beyond equality and ordering.
type UserID int64

// Permission bits carried in a GroupParticipant's flags field.
const (
	PermissionAddUsers    int32 = 1 << 0
	PermissionRemoveUsers int32 = 1 << 1
)

// GroupParticipant is one member of a GroupState.
type GroupParticipant struct {
	UserID      UserID
	PublicKey   crypto.PublicKey
	Permissions int32
	Version     int32
}

func (p GroupParticipant) hasPermission(bit int32) bool {
	return p.Permissions&bit != 0
}

// GroupState is the ordered membership snapshot carried by the chain.
// Participants are unique by PublicKey and, within a well-formed state, by
// UserID as well.
type GroupState struct {
	Participants        []GroupParticipant
	ExternalPermissions int32
}

// FindByUserID returns the participant with the given user id, or nil.
func (s *GroupState) FindByUserID(id UserID) *GroupParticipant {
	for i := range s.Participants {
		if s.Participants[i].UserID == id {
			return &s.Participants[i]
		}
	}
	return nil
}

// FindByPublicKey returns the participant with the given public key, or nil.
func (s *GroupState) FindByPublicKey(pk crypto.PublicKey) *GroupParticipant {
	for i := range s.Participants {
		if s.Participants[i].PublicKey == pk {
			return &s.Participants[i]
		}
	}
	return nil
}

// Equal reports whether two group states carry the same participants in
// the same order and the same external permissions.
func (s *GroupState) Equal(o *GroupState) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.ExternalPermissions != o.ExternalPermissions {
		return false
	}
	if len(s.Participants) != len(o.Participants) {
		return false
	}
	for i := range s.Participants {
		a, b := s.Participants[i], o.Participants[i]
		if a.UserID != b.UserID || a.PublicKey != b.PublicKey ||
			a.Permissions != b.Permissions || a.Version != b.Version {
			return false
		}
	}
	return true
}

// GroupSharedKey is the encrypted-for-everyone form of the current group
// symmetric key: one ephemeral ECDH public key, one singly-encrypted key
// blob, and one encrypted header per recipient.
type GroupSharedKey struct {
	EK                 crypto.PublicKey
	EncryptedSharedKey []byte
	DestUserID         []UserID
	DestHeader         [][]byte
}

// Equal reports whether two shared keys carry byte-identical fields.
func (k *GroupSharedKey) Equal(o *GroupSharedKey) bool {
	if k == nil || o == nil {
		return k == o
	}
	if k.EK != o.EK {
		return false
	}
	if string(k.EncryptedSharedKey) != string(o.EncryptedSharedKey) {
		return false
	}
	if len(k.DestUserID) != len(o.DestUserID) || len(k.DestHeader) != len(o.DestHeader) {
		return false
	}
	for i := range k.DestUserID {
		if k.DestUserID[i] != o.DestUserID[i] {
			return false
		}
		if string(k.DestHeader[i]) != string(o.DestHeader[i]) {
			return false
		}
	}
	return true
}

// ChangeKind discriminates the Change tagged union.
type ChangeKind int

const (
	ChangeNoop ChangeKind = iota
	ChangeSetValue
	ChangeSetGroupState
	ChangeSetSharedKey
)

// Change is one entry in a block's change list. Exactly the fields for Kind
// are meaningful; the rest are zero.
type Change struct {
	Kind ChangeKind

	// ChangeNoop
	Nonce crypto.Hash256

	// ChangeSetValue (reserved, unused by the call core itself)
	Key   []byte
	Value []byte

	// ChangeSetGroupState
	GroupState *GroupState

	// ChangeSetSharedKey
	SharedKey *GroupSharedKey
}

// NewNoopChange builds a NoOp change carrying nonce.
func NewNoopChange(nonce crypto.Hash256) Change {
	return Change{Kind: ChangeNoop, Nonce: nonce}
}

// NewSetGroupStateChange builds a SetGroupState change.
func NewSetGroupStateChange(state *GroupState) Change {
	return Change{Kind: ChangeSetGroupState, GroupState: state}
}

// NewSetSharedKeyChange builds a SetSharedKey change.
func NewSetSharedKeyChange(key *GroupSharedKey) Change {
	return Change{Kind: ChangeSetSharedKey, SharedKey: key}
}

// StateProof is the summary a block includes of what it changed the chain's
// key-value hash chain by, plus the resulting snapshots for changed fields.
type StateProof struct {
	KVHash     crypto.Hash256
	GroupState *GroupState
	SharedKey  *GroupSharedKey
}

const (
	stateProofFlagGroupState int32 = 1 << 0
	stateProofFlagSharedKey  int32 = 1 << 1
)

// Block is one signed entry of the chain.
type Block struct {
	Signature          crypto.Signature
	PrevBlockHash      crypto.Hash256
	Changes            []Change
	Height             int32
	StateProof         StateProof
	SignaturePublicKey *crypto.PublicKey
}

const blockFlagHasSignaturePublicKey int32 = 1 << 0

// IsGenesis reports whether b is a height-0 block.
func (b *Block) IsGenesis() bool {
	return b.Height == 0
}
