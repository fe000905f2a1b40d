package relay

import (
	"encoding/json"
	"errors"
)

// ErrNotHandshake is returned when a text frame is not a handshake record
var ErrNotHandshake = errors.New("not a handshake record")

// Handshake is the registration record a peer carries inside a text frame.
// Hash becomes the peer's registry key; Connected is accepted but not
// interpreted, the raw text is rebroadcast either way.
type Handshake struct {
	Connected bool   `json:"connected"`
	Hash      string `json:"hash"`
}

// DecodeHandshake decodes text as a handshake record. Both fields must be
// present; a text frame missing either is ordinary broadcast traffic, not
// a malformed handshake.
func DecodeHandshake(text string) (Handshake, error) {
	var raw struct {
		Connected *bool   `json:"connected"`
		Hash      *string `json:"hash"`
	}

	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Handshake{}, err
	}

	if raw.Connected == nil || raw.Hash == nil {
		return Handshake{}, ErrNotHandshake
	}

	return Handshake{
		Connected: *raw.Connected,
		Hash:      *raw.Hash,
	}, nil
}
