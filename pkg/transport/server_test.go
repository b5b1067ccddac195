package transport

import (
	"sync"
	"testing"
	"time"
)

func TestNewServerRequiresHandler(t *testing.T) {
	if _, err := NewServer(ServerConfig{ListenAddr: "127.0.0.1:0"}); err != ErrNoHandler {
		t.Fatalf("NewServer() error = %v, want %v", err, ErrNoHandler)
	}
}

func TestClientDialRequiresPeerID(t *testing.T) {
	_, err := Dial(ClientConfig{ServerAddr: "127.0.0.1:1", MessageHandler: func(*ReceivedMessage) {}})
	if err == nil {
		t.Fatal("Dial() with empty PeerID should fail")
	}
}

// newRelayServer builds a Server that rebroadcasts every frame it
// receives to every other connected peer, modeling how a group call's
// blocks and verification broadcasts actually reach participants.
func newRelayServer(t *testing.T) *Server {
	t.Helper()
	var srv *Server
	srv, err := NewServer(ServerConfig{
		ListenAddr: "127.0.0.1:0",
		MessageHandler: func(msg *ReceivedMessage) {
			srv.Broadcast(msg.Data, msg.PeerID)
		},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return srv
}

func TestServerRelaysBroadcastBetweenClients(t *testing.T) {
	srv := newRelayServer(t)
	defer srv.Stop()

	var mu sync.Mutex
	var aliceGot, bobGot [][]byte

	alice, err := Dial(ClientConfig{
		ServerAddr: srv.Addr().String(),
		PeerID:     "alice",
		MessageHandler: func(msg *ReceivedMessage) {
			mu.Lock()
			aliceGot = append(aliceGot, msg.Data)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Dial(alice): %v", err)
	}
	defer alice.Close()

	bob, err := Dial(ClientConfig{
		ServerAddr: srv.Addr().String(),
		PeerID:     "bob",
		MessageHandler: func(msg *ReceivedMessage) {
			mu.Lock()
			bobGot = append(bobGot, msg.Data)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Dial(bob): %v", err)
	}
	defer bob.Close()

	waitForPeerCount(t, srv, 2)

	if err := alice.Send([]byte("hello from alice")); err != nil {
		t.Fatalf("alice.Send: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(bobGot) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if len(aliceGot) != 0 {
		t.Errorf("alice should not receive her own broadcast, got %d messages", len(aliceGot))
	}
	if len(bobGot) != 1 || string(bobGot[0]) != "hello from alice" {
		t.Errorf("bob received %v, want [\"hello from alice\"]", bobGot)
	}
}

func TestServerSendToSinglePeer(t *testing.T) {
	srv := newRelayServer(t)
	defer srv.Stop()

	var mu sync.Mutex
	var got [][]byte
	alice, err := Dial(ClientConfig{
		ServerAddr: srv.Addr().String(),
		PeerID:     "alice",
		MessageHandler: func(msg *ReceivedMessage) {
			mu.Lock()
			got = append(got, msg.Data)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer alice.Close()

	waitForPeerCount(t, srv, 1)

	if err := srv.Send("alice", []byte("direct")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})

	if err := srv.Send("nobody", []byte("x")); err != ErrPeerNotConnected {
		t.Errorf("Send(unknown peer) error = %v, want %v", err, ErrPeerNotConnected)
	}
}

func waitForPeerCount(t *testing.T, srv *Server, n int) {
	t.Helper()
	waitFor(t, func() bool { return len(srv.Peers()) == n })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
