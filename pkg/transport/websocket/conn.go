package websocket

import (
	stderrors "errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tunnelvision/server/pkg/errors"
	"github.com/tunnelvision/server/pkg/relay"
)

// ConnOptions represents per-connection websocket options
type ConnOptions struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
}

// DefaultConnOptions returns default connection options
func DefaultConnOptions() ConnOptions {
	return ConnOptions{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxMessageSize: 256 << 20, // 256MB, screen frames are large
	}
}

// Conn adapts a gorilla websocket connection to the relay.Conn frame
// stream. The session is the only reader; writes are serialized
// internally so keepalive pings may interleave with session sends.
type Conn struct {
	ws      *websocket.Conn
	options ConnOptions

	writeMu sync.Mutex

	mu     sync.RWMutex
	closed bool
}

// NewConn wraps an upgraded websocket connection
func NewConn(ws *websocket.Conn, options ConnOptions) *Conn {
	if options.MaxMessageSize > 0 {
		ws.SetReadLimit(options.MaxMessageSize)
	}

	if options.ReadTimeout > 0 {
		ws.SetReadDeadline(time.Now().Add(options.ReadTimeout))
		ws.SetPongHandler(func(string) error {
			ws.SetReadDeadline(time.Now().Add(options.ReadTimeout))
			return nil
		})
	}

	return &Conn{
		ws:      ws,
		options: options,
	}
}

// ReadEnvelope implements relay.Conn. Peer close frames surface as
// KindClose envelopes with whatever code and reason the peer supplied.
func (c *Conn) ReadEnvelope() (relay.Envelope, error) {
	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if stderrors.As(err, &closeErr) {
				return relay.CloseEnvelope(closeErr.Code, closeErr.Text), nil
			}
			return relay.Envelope{}, errors.Wrap(err, errors.ErrorTypeTransport, "READ_FAILED", "websocket read failed")
		}

		switch messageType {
		case websocket.TextMessage:
			return relay.TextEnvelope(string(data)), nil
		case websocket.BinaryMessage:
			return relay.BinaryEnvelope(data), nil
		default:
			// Control frames are handled by gorilla's handlers; anything
			// else is skipped.
			continue
		}
	}
}

// WriteEnvelope implements relay.Conn
func (c *Conn) WriteEnvelope(env relay.Envelope) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return errors.New(errors.ErrorTypeTransport, "CONN_CLOSED", "connection is closed")
	}
	c.mu.RUnlock()

	deadline := time.Time{}
	if c.options.WriteTimeout > 0 {
		deadline = time.Now().Add(c.options.WriteTimeout)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var err error
	switch env.Kind {
	case relay.KindText:
		c.ws.SetWriteDeadline(deadline)
		err = c.ws.WriteMessage(websocket.TextMessage, []byte(env.Text))
	case relay.KindBinary:
		c.ws.SetWriteDeadline(deadline)
		err = c.ws.WriteMessage(websocket.BinaryMessage, env.Data)
	case relay.KindPing:
		err = c.ws.WriteControl(websocket.PingMessage, env.Data, deadline)
	case relay.KindPong:
		err = c.ws.WriteControl(websocket.PongMessage, env.Data, deadline)
	case relay.KindClose:
		msg := websocket.FormatCloseMessage(closeCode(env.Code), env.Reason)
		err = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
	default:
		return errors.New(errors.ErrorTypeProtocol, "UNKNOWN_FRAME", "unknown envelope kind")
	}

	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeTransport, "WRITE_FAILED", "websocket write failed")
	}

	return nil
}

// Close implements relay.Conn. It unblocks any pending read and is safe to
// call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.ws.Close()
}

func closeCode(code int) int {
	if code == 0 {
		return websocket.CloseNormalClosure
	}
	return code
}
