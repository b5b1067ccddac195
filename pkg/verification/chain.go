package verification

import (
	"bytes"
	"sort"

	"github.com/pion/logging"

	"github.com/tde2e/callcore/pkg/chain"
	"github.com/tde2e/callcore/pkg/crypto"
)

const maxBufferedHeightAhead = 8

// Config configures a Chain.
type Config struct {
	LoggerFactory logging.LoggerFactory
	PrivateKey    crypto.PrivateKey
}

// Chain runs the commit/reveal nonce exchange layered on top of one
// accepted main block. It is reset whenever the call's blockchain accepts
// a new block and, once every participant has committed and revealed,
// exposes a byte-identical emoji_hash to every participant that observed
// the same set of broadcasts. Its four-word rendering of the block hash is
// available from Reset on.
type Chain struct {
	log        logging.LeveledLogger
	privateKey crypto.PrivateKey
	publicKey  crypto.PublicKey

	height        int32
	lastBlockHash crypto.Hash256
	participants  map[crypto.PublicKey]chain.UserID

	state       State
	committed   map[crypto.PublicKey]crypto.Hash256
	revealed    map[crypto.PublicKey]crypto.Hash256
	revealOrder []crypto.PublicKey

	localNonce     crypto.Hash256
	localNonceHash crypto.Hash256

	words     []string
	emojiHash []byte

	outbound [][]byte
	delayed  map[int32][][]byte
}

// NewChain returns a Chain with no main block yet; call Reset once the
// first block is accepted.
func NewChain(config Config) *Chain {
	c := &Chain{
		privateKey: config.PrivateKey,
		publicKey:  config.PrivateKey.Public(),
		height:     -1,
		state:      StateEnd,
		delayed:    make(map[int32][][]byte),
	}
	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("verification")
	}
	return c
}

// Reset starts a fresh commit/reveal exchange for the block at height with
// hash lastBlockHash and membership groupState. It clears all prior
// progress, emits the local NonceCommit broadcast, and replays any
// broadcasts that had been buffered for this height.
func (c *Chain) Reset(height int32, lastBlockHash crypto.Hash256, groupState *chain.GroupState) error {
	c.height = height
	c.lastBlockHash = lastBlockHash
	c.state = StateCommit
	c.committed = make(map[crypto.PublicKey]crypto.Hash256)
	c.revealed = make(map[crypto.PublicKey]crypto.Hash256)
	c.revealOrder = nil
	c.emojiHash = nil
	c.outbound = nil

	c.participants = make(map[crypto.PublicKey]chain.UserID, len(groupState.Participants))
	for _, p := range groupState.Participants {
		c.participants[p.PublicKey] = p.UserID
	}

	digest := crypto.SHA256(lastBlockHash[:])
	c.words = deriveWords(digest)

	nonce, err := crypto.SecureRandomBytes(crypto.Hash256Size)
	if err != nil {
		return err
	}
	copy(c.localNonce[:], nonce)
	c.localNonceHash = crypto.SHA256(c.localNonce[:])

	commit := &NonceCommit{PublicKey: c.publicKey, ChainHeight: height, NonceHash: c.localNonceHash}
	commit.Signature = crypto.Sign(c.privateKey, encodeNonceCommit(commit, true))
	c.outbound = append(c.outbound, encodeNonceCommit(commit, false))
	if err := c.handleNonceCommit(commit); err != nil {
		return err
	}

	pending := c.delayed[height]
	delete(c.delayed, height)
	for _, raw := range pending {
		if err := c.HandleBroadcast(raw); err != nil && c.log != nil {
			c.log.Debugf("dropping buffered broadcast at height %d: %v", height, err)
		}
	}
	return nil
}

// HandleBroadcast parses a received broadcast and routes it by its
// declared chain height: broadcasts for a past height are dropped,
// broadcasts for a future height are buffered (up to
// maxBufferedHeightAhead), and broadcasts for the current height are
// processed immediately.
func (c *Chain) HandleBroadcast(raw []byte) error {
	parsed, err := decodeBroadcast(raw)
	if err != nil {
		return err
	}

	var height int32
	switch v := parsed.(type) {
	case *NonceCommit:
		height = v.ChainHeight
	case *NonceReveal:
		height = v.ChainHeight
	}

	if height < c.height {
		return nil
	}
	if height > c.height {
		if height > c.height+maxBufferedHeightAhead {
			return ErrBroadcastBufferFull
		}
		c.delayed[height] = append(c.delayed[height], raw)
		return nil
	}

	switch v := parsed.(type) {
	case *NonceCommit:
		return c.handleNonceCommit(v)
	case *NonceReveal:
		return c.handleNonceReveal(v)
	default:
		return ErrParseError
	}
}

func (c *Chain) handleNonceCommit(msg *NonceCommit) error {
	if c.state != StateCommit {
		return ErrWrongVerificationState
	}
	if _, ok := c.participants[msg.PublicKey]; !ok {
		return ErrUnknownBroadcastSigner
	}
	sigMsg := encodeNonceCommit(&NonceCommit{
		PublicKey:   msg.PublicKey,
		ChainHeight: msg.ChainHeight,
		NonceHash:   msg.NonceHash,
	}, true)
	if err := crypto.Verify(msg.PublicKey, sigMsg, msg.Signature); err != nil {
		return ErrBadSignature
	}
	if _, ok := c.committed[msg.PublicKey]; ok {
		return ErrDuplicateBroadcast
	}
	c.committed[msg.PublicKey] = msg.NonceHash

	if len(c.committed) < len(c.participants) {
		return nil
	}
	c.state = StateReveal
	reveal := &NonceReveal{PublicKey: c.publicKey, ChainHeight: c.height, Nonce: c.localNonce}
	reveal.Signature = crypto.Sign(c.privateKey, encodeNonceReveal(reveal, true))
	c.outbound = append(c.outbound, encodeNonceReveal(reveal, false))
	return c.handleNonceReveal(reveal)
}

func (c *Chain) handleNonceReveal(msg *NonceReveal) error {
	if c.state != StateReveal {
		return ErrWrongVerificationState
	}
	if _, ok := c.participants[msg.PublicKey]; !ok {
		return ErrUnknownBroadcastSigner
	}
	committedHash, ok := c.committed[msg.PublicKey]
	if !ok {
		return ErrUnknownBroadcastSigner
	}
	sigMsg := encodeNonceReveal(&NonceReveal{
		PublicKey:   msg.PublicKey,
		ChainHeight: msg.ChainHeight,
		Nonce:       msg.Nonce,
	}, true)
	if err := crypto.Verify(msg.PublicKey, sigMsg, msg.Signature); err != nil {
		return ErrBadSignature
	}
	if crypto.SHA256(msg.Nonce[:]) != committedHash {
		return ErrNonceHashMismatch
	}
	if _, ok := c.revealed[msg.PublicKey]; ok {
		return ErrDuplicateBroadcast
	}
	c.revealed[msg.PublicKey] = msg.Nonce
	c.revealOrder = append(c.revealOrder, msg.PublicKey)

	if len(c.revealed) == len(c.participants) {
		c.finalize()
	}
	return nil
}

// finalize concatenates revealed nonces in ascending public-key byte
// order and derives emoji_hash, per the interoperability policy this
// exchange mandates (observed-order concatenation would let two peers
// that processed broadcasts in different orders disagree on the result).
func (c *Chain) finalize() {
	order := make([]crypto.PublicKey, len(c.revealOrder))
	copy(order, c.revealOrder)
	sort.Slice(order, func(i, j int) bool {
		return bytes.Compare(order[i][:], order[j][:]) < 0
	})

	full := make([]byte, 0, len(order)*crypto.Hash256Size)
	for _, pk := range order {
		nonce := c.revealed[pk]
		full = append(full, nonce[:]...)
	}
	combined := crypto.CombineSecrets(c.lastBlockHash[:], full)
	c.emojiHash = combined[:]
	c.state = StateEnd
	if c.log != nil {
		c.log.Debugf("verification chain reached end state at height %d", c.height)
	}
}

// PullOutboundMessages drains and returns the broadcasts queued by this
// chain since the last call.
func (c *Chain) PullOutboundMessages() [][]byte {
	out := c.outbound
	c.outbound = nil
	return out
}

// State returns the current exchange phase.
func (c *Chain) State() State {
	return c.state
}

// Height returns the main block height this exchange is running for.
func (c *Chain) Height() int32 {
	return c.height
}

// EmojiHash returns the 32-byte verification hash, or nil if the exchange
// has not reached StateEnd.
func (c *Chain) EmojiHash() []byte {
	return c.emojiHash
}

// Words returns the four-word local rendering of the current main block
// hash. Unlike EmojiHash, this is available immediately after Reset: it
// depends only on the accepted block, not on the commit/reveal exchange.
func (c *Chain) Words() []string {
	return c.words
}
