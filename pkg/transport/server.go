package transport

import (
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pion/logging"
)

// Server accepts websocket connections from call participants: a
// reference implementation of the broadcast medium that carries blocks
// and verification messages between them. Every received frame is passed
// to the MessageHandler; the Server forwards nothing by itself, and a
// handler relays a frame by calling Broadcast or Send. It does not
// interpret frames.
type Server struct {
	handler MessageHandler
	log     logging.LeveledLogger

	upgrader websocket.Upgrader
	http     *http.Server
	listener net.Listener

	connsMu sync.RWMutex
	conns   map[string]*serverConn

	mu      sync.Mutex
	started bool
	closed  bool
}

type serverConn struct {
	peerID string
	conn   *websocket.Conn
	writeMu sync.Mutex
}

// ServerConfig configures a Server.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g. ":8443"). Ignored if
	// Listener is provided. Defaults to an ephemeral port.
	ListenAddr string

	// Listener is an optional pre-existing listener, used by tests.
	Listener net.Listener

	// MessageHandler is called for each frame received from any peer.
	// Required.
	MessageHandler MessageHandler

	// LoggerFactory builds the server's logger. A nil factory disables
	// logging.
	LoggerFactory logging.LoggerFactory
}

// NewServer creates a Server listening per config. The HTTP server is not
// started until Start is called.
func NewServer(config ServerConfig) (*Server, error) {
	if config.MessageHandler == nil {
		return nil, ErrNoHandler
	}

	s := &Server{
		handler:  config.MessageHandler,
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		conns:    make(map[string]*serverConn),
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("transport-server")
	}

	s.listener = config.Listener
	if s.listener == nil {
		addr := config.ListenAddr
		if addr == "" {
			addr = ":0"
		}
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}
		s.listener = ln
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)
	s.http = &http.Server{Handler: mux}

	return s, nil
}

// Start begins serving the listener in a background goroutine.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infof("starting websocket transport on %s", s.listener.Addr())
	}
	go func() {
		if err := s.http.Serve(s.listener); err != nil && err != http.ErrServerClosed {
			if s.log != nil {
				s.log.Errorf("serve: %v", err)
			}
		}
	}()
	return nil
}

// Stop closes every connection and the listener.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.mu.Unlock()

	s.connsMu.Lock()
	for _, c := range s.conns {
		c.conn.Close()
	}
	s.conns = make(map[string]*serverConn)
	s.connsMu.Unlock()

	return s.http.Close()
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	peerID := r.URL.Query().Get("peer_id")
	if peerID == "" {
		http.Error(w, "peer_id is required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.log != nil {
			s.log.Warnf("upgrade failed for %s: %v", peerID, err)
		}
		return
	}

	c := &serverConn{peerID: peerID, conn: conn}
	s.connsMu.Lock()
	s.conns[peerID] = c
	s.connsMu.Unlock()

	if s.log != nil {
		s.log.Infof("peer %s connected", peerID)
	}

	s.readPump(c)
}

func (s *Server) readPump(c *serverConn) {
	defer func() {
		c.conn.Close()
		s.connsMu.Lock()
		delete(s.conns, c.peerID)
		s.connsMu.Unlock()
		if s.log != nil {
			s.log.Infof("peer %s disconnected", c.peerID)
		}
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handler(&ReceivedMessage{Data: data, PeerID: c.peerID})
	}
}

// Send delivers data to a single connected peer.
func (s *Server) Send(peerID string, data []byte) error {
	s.connsMu.RLock()
	c, ok := s.conns[peerID]
	s.connsMu.RUnlock()
	if !ok {
		return ErrPeerNotConnected
	}
	return c.write(data)
}

// Broadcast delivers data to every connected peer except excludePeerID,
// mirroring how a group call's verification broadcasts and blocks reach
// every other participant.
func (s *Server) Broadcast(data []byte, excludePeerID string) {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	for id, c := range s.conns {
		if id == excludePeerID {
			continue
		}
		if err := c.write(data); err != nil && s.log != nil {
			s.log.Warnf("broadcast to %s failed: %v", id, err)
		}
	}
}

// Peers returns the ids of currently connected peers.
func (s *Server) Peers() []string {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	ids := make([]string, 0, len(s.conns))
	for id := range s.conns {
		ids = append(ids, id)
	}
	return ids
}

func (c *serverConn) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}
