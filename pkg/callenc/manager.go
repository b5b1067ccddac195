// Package callenc implements per-epoch authenticated encryption for call
// media/control payloads. An epoch corresponds to one group shared key,
// identified by the chain height at which it was adopted; the manager
// signs and envelope-encrypts outbound payloads under the current epoch
// and authenticates, replay-checks and envelope-decrypts inbound ones
// under whichever epoch they declare.
package callenc

import (
	"math"
	"time"

	"github.com/pion/logging"
	"github.com/pion/transport/v3/replaydetector"

	"github.com/tde2e/callcore/pkg/chain"
	"github.com/tde2e/callcore/pkg/crypto"
	"github.com/tde2e/callcore/pkg/envelope"
	"github.com/tde2e/callcore/pkg/tl"
)

// defaultGracePeriod is how long an epoch is kept decryptable after being
// superseded by a newer one, to absorb in-flight packets encrypted under
// the old key around a rotation.
const defaultGracePeriod = 10 * time.Second

// replayWindowSize bounds how many of a remote sender's most recent
// seqnos are tracked at once, per epoch per sender.
const replayWindowSize = 1024

// Config configures a Manager.
type Config struct {
	LoggerFactory logging.LoggerFactory
	PrivateKey    crypto.PrivateKey
	UserID        chain.UserID
	// GracePeriod overrides defaultGracePeriod when non-zero.
	GracePeriod time.Duration
}

// senderReplayState pairs a pion sliding-window replay detector (the
// authority on accept/reject) with a plain high-watermark so a rejection
// can be reported as TooOld or Replayed distinctly, the way the detector's
// internal mask already distinguishes them without exposing which.
type senderReplayState struct {
	detector    replaydetector.ReplayDetector
	largestSeen uint64
	hasSeen     bool
}

type epochState struct {
	key          []byte
	groupState   *chain.GroupState
	localSeqno   uint32
	detectors    map[crypto.PublicKey]*senderReplayState
	supersededAt time.Time // zero means this epoch has not been superseded
}

// Manager owns every live epoch's key material, local send counters and
// per-remote-sender replay windows for one call.
type Manager struct {
	log         logging.LeveledLogger
	privateKey  crypto.PrivateKey
	userID      chain.UserID
	grace       time.Duration
	currentAt   int32
	haveCurrent bool
	epochs      map[int32]*epochState
}

// NewManager returns a Manager with no epochs. Call AddSharedKey for the
// call's initial shared key before Encrypt or Decrypt is usable.
func NewManager(config Config) *Manager {
	grace := config.GracePeriod
	if grace == 0 {
		grace = defaultGracePeriod
	}
	m := &Manager{
		privateKey: config.PrivateKey,
		userID:     config.UserID,
		grace:      grace,
		epochs:     make(map[int32]*epochState),
	}
	if config.LoggerFactory != nil {
		m.log = config.LoggerFactory.NewLogger("callenc")
	}
	return m
}

// AddSharedKey registers a new epoch for the shared key adopted at height,
// marking any previously-current epoch as superseded so its grace timer
// starts running.
func (m *Manager) AddSharedKey(height int32, key []byte, groupState *chain.GroupState) {
	now := time.Now()
	if m.haveCurrent {
		if prev, ok := m.epochs[m.currentAt]; ok && m.currentAt != height {
			prev.supersededAt = now
		}
	}
	m.epochs[height] = &epochState{
		key:        key,
		groupState: groupState,
		detectors:  make(map[crypto.PublicKey]*senderReplayState),
	}
	m.currentAt = height
	m.haveCurrent = true
	m.pruneExpired(now)
}

func (m *Manager) pruneExpired(now time.Time) {
	for h, e := range m.epochs {
		if h == m.currentAt {
			continue
		}
		if !e.supersededAt.IsZero() && now.Sub(e.supersededAt) > m.grace {
			delete(m.epochs, h)
			if m.log != nil {
				m.log.Debugf("callenc: expired epoch at height %d", h)
			}
		}
	}
}

// Encrypt signs payload with the local private key, tagging it with the
// next seqno for the current epoch, and envelope-encrypts the result
// under that epoch's key.
func (m *Manager) Encrypt(payload []byte) ([]byte, error) {
	m.pruneExpired(time.Now())
	if !m.haveCurrent {
		return nil, ErrUnknownEpoch
	}
	epoch, ok := m.epochs[m.currentAt]
	if !ok {
		return nil, ErrUnknownEpoch
	}
	if epoch.localSeqno == math.MaxUint32 {
		return nil, ErrSeqnoOverflow
	}
	epoch.localSeqno++

	bw := tl.NewWriter()
	bw.Int64(int64(m.userID))
	bw.Uint32(epoch.localSeqno)
	bw.Fixed(payload)
	body := bw.Bytes()

	sig := crypto.Sign(m.privateKey, body)
	signed := make([]byte, 0, len(body)+crypto.SignatureSize)
	signed = append(signed, body...)
	signed = append(signed, sig[:]...)

	env, err := envelope.Encrypt(signed, epoch.key)
	if err != nil {
		return nil, err
	}

	out := tl.NewWriter()
	out.Int32(m.currentAt)
	out.Fixed(env)
	return out.Bytes(), nil
}

// Decrypt reads ciphertext's epoch prefix, envelope-decrypts under that
// epoch's key, verifies the sender's signature and user id against the
// epoch's group state, and enforces the per-sender replay window.
func (m *Manager) Decrypt(ciphertext []byte) ([]byte, error) {
	m.pruneExpired(time.Now())

	r := tl.NewReader(ciphertext)
	height, err := r.Int32()
	if err != nil {
		return nil, ErrMalformedCiphertext
	}
	epoch, ok := m.epochs[height]
	if !ok {
		return nil, ErrUnknownEpoch
	}
	env, err := r.Fixed(r.Remaining())
	if err != nil {
		return nil, ErrMalformedCiphertext
	}

	signed, err := envelope.Decrypt(env, epoch.key)
	if err != nil {
		return nil, err
	}
	if len(signed) < crypto.SignatureSize {
		return nil, ErrMalformedCiphertext
	}
	body := signed[:len(signed)-crypto.SignatureSize]
	var sig crypto.Signature
	copy(sig[:], signed[len(signed)-crypto.SignatureSize:])

	br := tl.NewReader(body)
	rawUserID, err := br.Int64()
	if err != nil {
		return nil, ErrMalformedCiphertext
	}
	seqno, err := br.Uint32()
	if err != nil {
		return nil, ErrMalformedCiphertext
	}
	payload, err := br.Fixed(br.Remaining())
	if err != nil {
		return nil, ErrMalformedCiphertext
	}

	sender := epoch.groupState.FindByUserID(chain.UserID(rawUserID))
	if sender == nil {
		return nil, ErrUnknownSender
	}
	if err := crypto.Verify(sender.PublicKey, body, sig); err != nil {
		return nil, ErrBadSignature
	}

	if err := checkReplay(epoch, sender.PublicKey, seqno); err != nil {
		return nil, err
	}

	return payload, nil
}

func checkReplay(epoch *epochState, sender crypto.PublicKey, seqno uint32) error {
	st, ok := epoch.detectors[sender]
	if !ok {
		st = &senderReplayState{detector: replaydetector.New(replayWindowSize, math.MaxUint32)}
		epoch.detectors[sender] = st
	}

	seq64 := uint64(seqno)
	accept, ok := st.detector.Check(seq64)
	if !ok {
		if st.hasSeen && seq64+replayWindowSize <= st.largestSeen {
			return ErrTooOld
		}
		return ErrReplayed
	}
	accept()
	if !st.hasSeen || seq64 > st.largestSeen {
		st.largestSeen = seq64
		st.hasSeen = true
	}
	return nil
}
