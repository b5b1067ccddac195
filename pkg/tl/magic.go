package tl

// Magic constructor ids for every boxed structure on the wire. Values are
// fixed by the deployed wire format and must never change. Negative int32
// magics from the schema are stored here in their uint32 bit pattern.
const (
	MagicBlock                     uint32 = 1671052726  // e2e.chain.block
	MagicChangeNoop                uint32 = 0xdeb4a41b   // e2e.chain.changeNoop (-558586853)
	MagicChangeSetValue            uint32 = 0xfe0139cc   // e2e.chain.changeSetValue (-33474100)
	MagicChangeSetGroupState       uint32 = 754020678    // e2e.chain.changeSetGroupState
	MagicChangeSetSharedKey        uint32 = 0x987a2158   // e2e.chain.changeSetSharedKey (-1736826536)
	MagicGroupParticipant          uint32 = 418617119    // e2e.chain.groupParticipant
	MagicGroupState                uint32 = 500987268    // e2e.chain.groupState
	MagicSharedKey                 uint32 = 0x8a847e7f    // e2e.chain.sharedKey (-1971028353)
	MagicStateProof                uint32 = 0xd6b679e6    // e2e.chain.stateProof (-692684314)
	MagicGroupBroadcastNonceCommit uint32 = 0xd1512ae7    // e2e.chain.groupBroadcastNonceCommit (-783209753)
	MagicGroupBroadcastNonceReveal uint32 = 0x83f4f9d8    // e2e.chain.groupBroadcastNonceReveal (-2081097256)

	// MagicVector is the standard boxed TL vector constructor, used to wrap
	// every vector<T> field (e.g. a block's change list or a group state's
	// participant list).
	MagicVector uint32 = 0x1cb5c415
)
