package transport

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pion/logging"
)

// Client is one participant's connection to a Server: it sends the
// local blocks and verification broadcasts it produces and delivers
// whatever the server relays back to a MessageHandler.
type Client struct {
	conn    *websocket.Conn
	handler MessageHandler
	log     logging.LeveledLogger

	writeMu sync.Mutex
	closeCh chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// ServerAddr is the server's host:port, e.g. "127.0.0.1:8443".
	ServerAddr string

	// PeerID identifies this participant to the server; must be unique
	// per server.
	PeerID string

	// MessageHandler is called for each frame relayed by the server.
	// Required.
	MessageHandler MessageHandler

	// LoggerFactory builds the client's logger. A nil factory disables
	// logging.
	LoggerFactory logging.LoggerFactory
}

// Dial connects to a Server and starts relaying received frames to
// config.MessageHandler until Close is called or the connection drops.
func Dial(config ClientConfig) (*Client, error) {
	if config.MessageHandler == nil {
		return nil, ErrNoHandler
	}
	if config.PeerID == "" {
		return nil, fmt.Errorf("transport: PeerID is required")
	}

	u := url.URL{Scheme: "ws", Host: config.ServerAddr, Path: "/", RawQuery: "peer_id=" + url.QueryEscape(config.PeerID)}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:    conn,
		handler: config.MessageHandler,
		closeCh: make(chan struct{}),
	}
	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("transport-client")
	}

	conn.SetReadLimit(MaxMessageSize)
	c.wg.Add(1)
	go c.readPump()

	return c, nil
}

func (c *Client) readPump() {
	defer c.wg.Done()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closeCh:
			default:
				if c.log != nil {
					c.log.Infof("read loop stopped: %v", err)
				}
			}
			return
		}
		c.handler(&ReceivedMessage{Data: data})
	}
}

// Send transmits data to the server for relay to the other peers.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Close shuts down the connection and waits for the read loop to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.closed = true
	c.mu.Unlock()

	close(c.closeCh)
	err := c.conn.Close()
	c.wg.Wait()
	return err
}
