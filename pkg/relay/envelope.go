package relay

// Kind identifies the frame type carried by an Envelope.
type Kind int

const (
	KindText Kind = iota + 1
	KindBinary
	KindPing
	KindPong
	KindClose
)

// String returns a human readable frame type name
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	case KindClose:
		return "close"
	default:
		return "unknown"
	}
}

// Envelope is one typed unit of data exchanged with a peer or published
// through the hub. Exactly one of Text/Data/Code+Reason is meaningful,
// selected by Kind.
type Envelope struct {
	Kind   Kind
	Text   string
	Data   []byte
	Code   int
	Reason string
}

// TextEnvelope wraps a text frame
func TextEnvelope(text string) Envelope {
	return Envelope{Kind: KindText, Text: text}
}

// BinaryEnvelope wraps a binary frame
func BinaryEnvelope(data []byte) Envelope {
	return Envelope{Kind: KindBinary, Data: data}
}

// PingEnvelope wraps a ping frame
func PingEnvelope(data []byte) Envelope {
	return Envelope{Kind: KindPing, Data: data}
}

// PongEnvelope wraps a pong frame
func PongEnvelope(data []byte) Envelope {
	return Envelope{Kind: KindPong, Data: data}
}

// CloseEnvelope wraps a close frame. Code and reason are optional; zero
// values mean the peer sent a bare close.
func CloseEnvelope(code int, reason string) Envelope {
	return Envelope{Kind: KindClose, Code: code, Reason: reason}
}
