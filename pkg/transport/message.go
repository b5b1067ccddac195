package transport

// ReceivedMessage represents one inbound frame: a serialized block or a
// verification broadcast, exactly as produced by pkg/chain or
// pkg/verification. This package never parses the payload; it only
// moves bytes between call.Call instances.
type ReceivedMessage struct {
	// Data contains the raw message bytes.
	Data []byte
	// PeerID is the sending peer's id (the one its Client chose when
	// dialing), set by the Server on frames it receives. Frames a Client
	// receives carry an empty PeerID.
	PeerID string
}

// MessageHandler is called for each received message. Implementations
// should process messages quickly or dispatch to a goroutine to avoid
// blocking the transport's read loop.
type MessageHandler func(msg *ReceivedMessage)

// MaxMessageSize bounds a single frame; blocks and verification
// broadcasts are small fixed-shape structures, so this is generous
// headroom rather than a tight fit.
const MaxMessageSize = 1 << 20
