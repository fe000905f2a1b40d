package relay

import "unicode/utf8"

// IdentifierLength is the fixed byte length of the client identifier that
// prefixes an addressed binary payload.
const IdentifierLength = 22

// SplitBinary splits an addressed binary payload into its identifier
// header and body. It reports ok=false when no routable header is present:
// the payload is too short to carry one, or the header bytes are not a
// valid identifier encoding.
func SplitBinary(payload []byte) (id string, body []byte, ok bool) {
	if len(payload) <= IdentifierLength {
		return "", nil, false
	}

	header := payload[:IdentifierLength]
	if !utf8.Valid(header) {
		return "", nil, false
	}

	return string(header), payload[IdentifierLength:], true
}

// Router decides, for one subscriber at a time, whether a published binary
// envelope should be forwarded to that subscriber's peer. Every outbound
// loop consults the shared registry independently; there is no central
// dispatch point.
type Router struct {
	registry *Registry
}

// NewRouter creates a router backed by registry
func NewRouter(registry *Registry) *Router {
	return &Router{
		registry: registry,
	}
}

// Route returns the body to forward when the subscriber identified by
// handle currently owns the payload's identifier header. Unaddressed
// payloads and payloads owned by someone else are dropped for this
// subscriber, never rebroadcast.
func (r *Router) Route(payload []byte, handle ConnHandle) ([]byte, bool) {
	id, body, ok := SplitBinary(payload)
	if !ok {
		return nil, false
	}

	owner, ok := r.registry.Lookup(id)
	if !ok || owner != handle {
		return nil, false
	}

	return body, true
}
