// Package call implements the facade that ties the blockchain,
// verification chain and per-epoch payload encryption into one
// synchronous, single-threaded call session: construct a genesis or
// adopt an existing chain, propose membership changes, apply remote
// blocks, exchange verification broadcasts, and encrypt or decrypt
// call traffic.
package call

import (
	"time"

	"github.com/pion/logging"

	"github.com/tde2e/callcore/pkg/callenc"
	"github.com/tde2e/callcore/pkg/chain"
	"github.com/tde2e/callcore/pkg/crypto"
	"github.com/tde2e/callcore/pkg/verification"
)

// Config configures a Call and the components it builds internally.
type Config struct {
	LoggerFactory logging.LoggerFactory
	PrivateKey    crypto.PrivateKey
	// GracePeriod overrides the default per-epoch key retention window
	// when non-zero; see pkg/callenc.
	GracePeriod time.Duration
}

// VerificationState mirrors the verification chain's externally visible
// progress for the current main block.
type VerificationState struct {
	Height    int32
	EmojiHash []byte
}

// VerificationWords mirrors the verification chain's local word
// rendering for the current main block.
type VerificationWords struct {
	Height int32
	Words  []string
}

// Call owns one call session's blockchain, verification chain and
// payload encryption manager, and the unwrapped group key.
type Call struct {
	log        logging.LeveledLogger
	privateKey crypto.PrivateKey
	userID     chain.UserID

	bc    *chain.Blockchain
	verif *verification.Chain
	enc   *callenc.Manager
}

// CreateZeroBlock builds and returns a signed genesis block establishing
// groupState and a freshly generated shared key, without constructing a
// live Call.
func CreateZeroBlock(signer crypto.PrivateKey, groupState *chain.GroupState) ([]byte, error) {
	sharedKey, _, err := chain.GenerateSharedKey(groupState)
	if err != nil {
		return nil, err
	}
	changes := []chain.Change{
		chain.NewSetGroupStateChange(groupState),
		chain.NewSetSharedKeyChange(sharedKey),
	}
	block, _, err := chain.BuildBlock(signer, chain.EmptyState(), changes)
	if err != nil {
		return nil, err
	}
	return chain.EncodeBlock(block, false)
}

// CreateSelfAddBlock decodes lastBlock and requires its state proof to
// carry a group state; lastBlock's signature and its link to earlier
// blocks are not checked. It then builds and returns a new block that
// adds self to that group state (replacing any existing entry
// with the same user id) and rotates the shared key for the resulting
// membership. signer must already be a member of lastBlock's group
// state.
func CreateSelfAddBlock(signer crypto.PrivateKey, lastBlock []byte, self chain.GroupParticipant) ([]byte, error) {
	state, err := stateFromTrustedBlock(lastBlock)
	if err != nil {
		return nil, err
	}
	newGroupState := chain.WithParticipant(state.GroupState, self)
	newSharedKey, _, err := chain.GenerateSharedKey(newGroupState)
	if err != nil {
		return nil, err
	}
	changes := []chain.Change{
		chain.NewSetGroupStateChange(newGroupState),
		chain.NewSetSharedKeyChange(newSharedKey),
	}
	block, _, err := chain.BuildBlock(signer, state, changes)
	if err != nil {
		return nil, err
	}
	return chain.EncodeBlock(block, false)
}

// Create builds a live Call by adopting lastBlock as the chain's current
// tip: it decrypts the current group key for config.PrivateKey and resets
// the verification chain and payload encryptor against it.
func Create(config Config, lastBlock []byte) (*Call, error) {
	state, err := stateFromTrustedBlock(lastBlock)
	if err != nil {
		return nil, err
	}

	myPublic := config.PrivateKey.Public()
	member := state.GroupState.FindByPublicKey(myPublic)
	if member == nil {
		return nil, ErrNotAMember
	}

	sharedKeyRaw, err := chain.RecoverSharedKey(config.PrivateKey, member.UserID, state.SharedKey)
	if err != nil {
		return nil, err
	}

	c := &Call{
		privateKey: config.PrivateKey,
		userID:     member.UserID,
		bc: chain.NewBlockchainFromState(chain.Config{LoggerFactory: config.LoggerFactory}, state),
		verif: verification.NewChain(verification.Config{
			LoggerFactory: config.LoggerFactory,
			PrivateKey:    config.PrivateKey,
		}),
		enc: callenc.NewManager(callenc.Config{
			LoggerFactory: config.LoggerFactory,
			PrivateKey:    config.PrivateKey,
			UserID:        member.UserID,
			GracePeriod:   config.GracePeriod,
		}),
	}
	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("call")
	}

	c.enc.AddSharedKey(state.Height, sharedKeyRaw, state.GroupState)
	if err := c.verif.Reset(state.Height, state.LastBlockHash, state.GroupState); err != nil {
		return nil, err
	}
	return c, nil
}

// stateFromTrustedBlock decodes a block already trusted by the caller
// (e.g. received out of band, or previously validated) and derives the
// chain State it establishes, requiring it to carry a group state to
// adopt or extend.
func stateFromTrustedBlock(raw []byte) (*chain.State, error) {
	block, err := chain.DecodeBlock(raw)
	if err != nil {
		return nil, ErrParseError
	}
	if block.StateProof.GroupState == nil {
		return nil, ErrMissingGroupState
	}
	blockHash, err := chain.BlockHash(block)
	if err != nil {
		return nil, ErrParseError
	}
	return &chain.State{
		Height:        block.Height,
		LastBlockHash: blockHash,
		LastKVHash:    block.StateProof.KVHash,
		GroupState:    block.StateProof.GroupState,
		SharedKey:     block.StateProof.SharedKey,
	}, nil
}

// BuildChangeState generates a fresh shared key wrapped for every
// participant of newGroupState, builds and applies a block carrying both
// the new group state and the new shared key, and returns the serialized
// block.
func (c *Call) BuildChangeState(newGroupState *chain.GroupState) ([]byte, error) {
	sharedKey, sharedKeyRaw, err := chain.GenerateSharedKey(newGroupState)
	if err != nil {
		return nil, err
	}
	changes := []chain.Change{
		chain.NewSetGroupStateChange(newGroupState),
		chain.NewSetSharedKeyChange(sharedKey),
	}
	encoded, err := c.bc.Build(c.privateKey, changes)
	if err != nil {
		return nil, err
	}
	state := c.bc.State()
	c.enc.AddSharedKey(state.Height, sharedKeyRaw, state.GroupState)
	if err := c.verif.Reset(state.Height, state.LastBlockHash, state.GroupState); err != nil {
		return nil, err
	}
	return encoded, nil
}

// ApplyBlock validates and applies a remote block. If it rotated the
// shared key, the new key is unwrapped for local use; in all cases the
// verification chain is reset against the newly accepted block.
func (c *Call) ApplyBlock(raw []byte) error {
	block, err := chain.DecodeBlock(raw)
	if err != nil {
		return ErrParseError
	}

	prevSharedKey := c.bc.SharedKey()
	if err := c.bc.Apply(block); err != nil {
		return err
	}
	state := c.bc.State()

	if state.SharedKey != prevSharedKey {
		member := state.GroupState.FindByPublicKey(c.privateKey.Public())
		if member == nil {
			return ErrNotAMember
		}
		sharedKeyRaw, err := chain.RecoverSharedKey(c.privateKey, member.UserID, state.SharedKey)
		if err != nil {
			return err
		}
		c.userID = member.UserID
		c.enc.AddSharedKey(state.Height, sharedKeyRaw, state.GroupState)
	}

	return c.verif.Reset(state.Height, state.LastBlockHash, state.GroupState)
}

// Encrypt encrypts payload for the call's current epoch.
func (c *Call) Encrypt(payload []byte) ([]byte, error) {
	return c.enc.Encrypt(payload)
}

// Decrypt decrypts and authenticates ciphertext, enforcing replay
// protection for its sender and epoch.
func (c *Call) Decrypt(ciphertext []byte) ([]byte, error) {
	return c.enc.Decrypt(ciphertext)
}

// PullOutboundVerificationMessages drains broadcasts the verification
// chain has queued for the local participant to send.
func (c *Call) PullOutboundVerificationMessages() [][]byte {
	return c.verif.PullOutboundMessages()
}

// ReceiveVerificationMessage forwards a received broadcast to the
// verification chain.
func (c *Call) ReceiveVerificationMessage(raw []byte) error {
	return c.verif.HandleBroadcast(raw)
}

// GetVerificationState returns the current commit/reveal exchange's
// progress for the call's current main block.
func (c *Call) GetVerificationState() VerificationState {
	return VerificationState{Height: c.verif.Height(), EmojiHash: c.verif.EmojiHash()}
}

// GetVerificationWords returns the local four-word rendering of the
// call's current main block hash.
func (c *Call) GetVerificationWords() VerificationWords {
	return VerificationWords{Height: c.verif.Height(), Words: c.verif.Words()}
}

// GetGroupState returns the call's current live group state.
func (c *Call) GetGroupState() *chain.GroupState {
	return c.bc.GroupState()
}

// GetHeight returns the height of the call's last accepted block.
func (c *Call) GetHeight() int32 {
	return c.bc.Height()
}
