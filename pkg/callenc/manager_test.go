package callenc

import (
	"testing"
	"time"

	"github.com/tde2e/callcore/pkg/chain"
	"github.com/tde2e/callcore/pkg/crypto"
)

func testGroupState(t *testing.T, ids ...chain.UserID) (*chain.GroupState, map[chain.UserID]crypto.PrivateKey) {
	t.Helper()
	keys := make(map[chain.UserID]crypto.PrivateKey, len(ids))
	participants := make([]chain.GroupParticipant, len(ids))
	for i, id := range ids {
		sk, err := crypto.GeneratePrivateKey()
		if err != nil {
			t.Fatalf("GeneratePrivateKey: %v", err)
		}
		keys[id] = sk
		participants[i] = chain.GroupParticipant{UserID: id, PublicKey: sk.Public()}
	}
	return &chain.GroupState{Participants: participants}, keys
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	state, keys := testGroupState(t, 1, 2)
	groupKey := []byte("0123456789abcdef0123456789abcdef")[:32]

	alice := NewManager(Config{PrivateKey: keys[1], UserID: 1})
	bob := NewManager(Config{PrivateKey: keys[2], UserID: 2})
	alice.AddSharedKey(0, groupKey, state)
	bob.AddSharedKey(0, groupKey, state)

	ct, err := alice.Encrypt([]byte("hello bob"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	pt, err := bob.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(pt) != "hello bob" {
		t.Errorf("got %q, want %q", pt, "hello bob")
	}
}

func TestDecryptRejectsUnknownEpoch(t *testing.T) {
	state, keys := testGroupState(t, 1, 2)
	groupKey := make([]byte, 32)

	alice := NewManager(Config{PrivateKey: keys[1], UserID: 1})
	bob := NewManager(Config{PrivateKey: keys[2], UserID: 2})
	alice.AddSharedKey(5, groupKey, state)
	// bob never learns epoch 5

	ct, err := alice.Encrypt([]byte("x"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := bob.Decrypt(ct); err != ErrUnknownEpoch {
		t.Errorf("got %v, want ErrUnknownEpoch", err)
	}
}

func TestDecryptRejectsUnknownSender(t *testing.T) {
	state, keys := testGroupState(t, 1, 2)
	groupKey := make([]byte, 32)
	strangerSK, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}

	stranger := NewManager(Config{PrivateKey: strangerSK, UserID: 99})
	bob := NewManager(Config{PrivateKey: keys[2], UserID: 2})
	stranger.AddSharedKey(0, groupKey, state)
	bob.AddSharedKey(0, groupKey, state)

	ct, err := stranger.Encrypt([]byte("x"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := bob.Decrypt(ct); err != ErrUnknownSender {
		t.Errorf("got %v, want ErrUnknownSender", err)
	}
}

func TestDecryptRejectsReplay(t *testing.T) {
	state, keys := testGroupState(t, 1, 2)
	groupKey := make([]byte, 32)

	alice := NewManager(Config{PrivateKey: keys[1], UserID: 1})
	bob := NewManager(Config{PrivateKey: keys[2], UserID: 2})
	alice.AddSharedKey(0, groupKey, state)
	bob.AddSharedKey(0, groupKey, state)

	ct, err := alice.Encrypt([]byte("once"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := bob.Decrypt(ct); err != nil {
		t.Fatalf("first decrypt: %v", err)
	}
	if _, err := bob.Decrypt(ct); err != ErrReplayed {
		t.Errorf("got %v, want ErrReplayed", err)
	}
}

func TestGracePeriodAllowsOldEpochThenExpires(t *testing.T) {
	state, keys := testGroupState(t, 1, 2)
	oldKey := make([]byte, 32)
	newKey := make([]byte, 32)
	newKey[0] = 0x01

	alice := NewManager(Config{PrivateKey: keys[1], UserID: 1, GracePeriod: 20 * time.Millisecond})
	bob := NewManager(Config{PrivateKey: keys[2], UserID: 2, GracePeriod: 20 * time.Millisecond})
	alice.AddSharedKey(0, oldKey, state)
	bob.AddSharedKey(0, oldKey, state)

	ctOld, err := alice.Encrypt([]byte("under old key"))
	if err != nil {
		t.Fatalf("Encrypt(old): %v", err)
	}

	alice.AddSharedKey(1, newKey, state)
	bob.AddSharedKey(1, newKey, state)

	if _, err := bob.Decrypt(ctOld); err != nil {
		t.Fatalf("decrypt during grace period: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if _, err := bob.Decrypt(ctOld); err != ErrUnknownEpoch {
		t.Errorf("got %v, want ErrUnknownEpoch after grace period elapses", err)
	}
}

func TestSeqnoOverflowRejected(t *testing.T) {
	state, keys := testGroupState(t, 1, 2)
	key := make([]byte, 32)
	alice := NewManager(Config{PrivateKey: keys[1], UserID: 1})
	alice.AddSharedKey(0, key, state)
	alice.epochs[0].localSeqno = ^uint32(0)

	if _, err := alice.Encrypt([]byte("x")); err != ErrSeqnoOverflow {
		t.Errorf("got %v, want ErrSeqnoOverflow", err)
	}
}
