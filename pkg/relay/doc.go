// Package relay implements the connection hub of the tunnelvision server:
// a registry mapping peer-supplied identifiers to live connections, a
// broadcast hub with per-subscriber bounded queues, the binary routing
// contract, and the per-connection session that ties them together.
//
// Peers exchange two kinds of traffic. Text frames are control messages
// broadcast to every connected peer, including the sender; a text frame
// that decodes as a handshake record additionally registers the sender
// under the record's hash. Binary frames carry a 22-byte identifier header
// followed by the payload body; each subscriber's outbound loop forwards
// the body only when it currently owns that identifier, so an addressed
// payload reaches exactly the registered peer.
//
// The package is transport-agnostic: sessions drive the Conn interface,
// and pkg/transport/websocket provides the production implementation.
package relay
