package chain

import (
	"github.com/pion/logging"

	"github.com/tde2e/callcore/pkg/crypto"
)

// Config configures a Blockchain. The zero value is usable; a nil
// LoggerFactory simply disables logging.
type Config struct {
	LoggerFactory logging.LoggerFactory
}

// Blockchain owns the mutable chain state: the current height, last block
// hash, cumulative key-value hash, and live group state and shared key
// snapshots. It is not safe for concurrent use; callers serialize access.
type Blockchain struct {
	log   logging.LeveledLogger
	state *State
}

// NewBlockchain returns an empty Blockchain with no accepted blocks.
func NewBlockchain(config Config) *Blockchain {
	return newBlockchain(config, EmptyState())
}

// NewBlockchainFromState returns a Blockchain seeded with a state already
// derived elsewhere (e.g. from a trusted block's own state proof), used
// when joining a chain without replaying it from genesis.
func NewBlockchainFromState(config Config, state *State) *Blockchain {
	return newBlockchain(config, state)
}

func newBlockchain(config Config, state *State) *Blockchain {
	bc := &Blockchain{state: state}
	if config.LoggerFactory != nil {
		bc.log = config.LoggerFactory.NewLogger("chain")
	}
	return bc
}

// Apply validates block against the current state and, on success, commits
// it as the new current state.
func (bc *Blockchain) Apply(block *Block) error {
	newState, err := ValidateAndApply(bc.state, block)
	if err != nil {
		if bc.log != nil {
			bc.log.Infof("rejected block at height %d: %v", block.Height, err)
		}
		return err
	}
	bc.state = newState
	if bc.log != nil {
		bc.log.Debugf("accepted block at height %d", block.Height)
	}
	return nil
}

// Build signs and applies a block built from changes, returning the
// serialized block bytes.
func (bc *Blockchain) Build(signer crypto.PrivateKey, changes []Change) ([]byte, error) {
	block, newState, err := BuildBlock(signer, bc.state, changes)
	if err != nil {
		return nil, err
	}
	encoded, err := EncodeBlock(block, false)
	if err != nil {
		return nil, err
	}
	bc.state = newState
	if bc.log != nil {
		bc.log.Debugf("built block at height %d", block.Height)
	}
	return encoded, nil
}

// Height returns the height of the last accepted block, or NoBlocksHeight.
func (bc *Blockchain) Height() int32 {
	return bc.state.Height
}

// LastBlockHash returns the chain-link hash of the last accepted block.
func (bc *Blockchain) LastBlockHash() crypto.Hash256 {
	return bc.state.LastBlockHash
}

// GroupState returns the current live group state, or nil if no blocks
// have been accepted.
func (bc *Blockchain) GroupState() *GroupState {
	return bc.state.GroupState
}

// SharedKey returns the current live shared key snapshot, or nil.
func (bc *Blockchain) SharedKey() *GroupSharedKey {
	return bc.state.SharedKey
}

// State returns the current immutable state snapshot.
func (bc *Blockchain) State() *State {
	return bc.state
}
