package relay

// Conn is the ordered duplex stream of typed frames a session drives. The
// transport layer provides it; the session is its only reader and its only
// writer.
//
// Implementations must unblock any pending ReadEnvelope when Close is
// called, returning an error from the interrupted read. Close must be safe
// to call more than once.
type Conn interface {
	// ReadEnvelope returns the next frame from the peer. A close frame is
	// returned as a KindClose envelope, not as an error.
	ReadEnvelope() (Envelope, error)

	// WriteEnvelope sends a frame to the peer.
	WriteEnvelope(env Envelope) error

	// Close tears down the underlying stream.
	Close() error
}
