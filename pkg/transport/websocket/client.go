package websocket

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/tunnelvision/server/pkg/errors"
	"github.com/tunnelvision/server/pkg/relay"
)

// Client is a dialing relay peer. The sharer side of tunnelvision uses it
// to register its hash and stream addressed binary frames; it also backs
// the integration tests.
type Client struct {
	conn *Conn
	hash string
}

// Dial connects to a relay server at rawURL (ws:// or wss:// scheme).
func Dial(ctx context.Context, rawURL string, options ConnOptions) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeTransport, "DIAL_FAILED", "failed to connect to relay")
	}

	return &Client{
		conn: NewConn(ws, options),
	}, nil
}

// Hash returns the identifier this client last registered under
func (c *Client) Hash() string {
	return c.hash
}

// Register announces the client's identifier to the relay. The relay
// rebroadcasts the handshake text to every peer, this client included.
func (c *Client) Register(hash string) error {
	data, err := json.Marshal(relay.Handshake{Connected: true, Hash: hash})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "MARSHAL_FAILED", "failed to marshal handshake")
	}

	if err := c.conn.WriteEnvelope(relay.TextEnvelope(string(data))); err != nil {
		return err
	}

	c.hash = hash
	return nil
}

// SendText broadcasts a text message to every connected peer
func (c *Client) SendText(text string) error {
	return c.conn.WriteEnvelope(relay.TextEnvelope(text))
}

// SendTo sends body to the peer registered under hash. The identifier is
// prefixed as the routing header, so hash must have the exact identifier
// length.
func (c *Client) SendTo(hash string, body []byte) error {
	if len(hash) != relay.IdentifierLength {
		return errors.New(errors.ErrorTypeValidation, "BAD_IDENTIFIER", "identifier must be exactly 22 bytes")
	}

	payload := make([]byte, 0, len(hash)+len(body))
	payload = append(payload, hash...)
	payload = append(payload, body...)

	return c.conn.WriteEnvelope(relay.BinaryEnvelope(payload))
}

// ReadEnvelope returns the next frame from the relay
func (c *Client) ReadEnvelope() (relay.Envelope, error) {
	return c.conn.ReadEnvelope()
}

// Close sends a close frame and tears down the connection
func (c *Client) Close() error {
	// Best effort: the relay clears this client's registrations when it
	// sees the close frame.
	c.conn.WriteEnvelope(relay.CloseEnvelope(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
