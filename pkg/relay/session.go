package relay

import (
	"context"
	"sync"

	"github.com/tunnelvision/server/internal/logging"
)

// probePayload is the liveness probe sent before a session commits to the
// hub. Peers echo it back as a pong; the content is arbitrary.
var probePayload = []byte{1, 2, 3}

// Session wires one connection into the registry and the hub. It runs an
// inbound loop (peer frames into the registry and hub) and an outbound
// loop (hub envelopes back to the peer) concurrently; the session ends as
// soon as either loop exits, and the sibling is cancelled without
// draining.
type Session struct {
	handle   ConnHandle
	conn     Conn
	registry *Registry
	hub      *Hub
	router   *Router
	logger   *logging.Logger
}

// NewSession creates a session for conn identified by handle. The registry
// and hub are shared across every session on the server.
func NewSession(handle ConnHandle, conn Conn, registry *Registry, hub *Hub, logger *logging.Logger) *Session {
	return &Session{
		handle:   handle,
		conn:     conn,
		registry: registry,
		hub:      hub,
		router:   NewRouter(registry),
		logger:   logger.WithFields(map[string]any{"handle": string(handle)}),
	}
}

// Handle returns the session's connection handle
func (s *Session) Handle() ConnHandle {
	return s.handle
}

// Run drives the session until the peer disconnects, either loop fails, or
// ctx is cancelled. It blocks for the life of the connection.
func (s *Session) Run(ctx context.Context) {
	// Liveness probe. A connection that cannot take the first write never
	// joins the hub.
	if err := s.conn.WriteEnvelope(PingEnvelope(probePayload)); err != nil {
		s.logger.Error("liveness probe failed", "error", err)
		return
	}

	sub := s.hub.Subscribe()
	defer sub.Close()

	// Whatever ends the session, the peer's registrations go with it.
	defer s.registry.RemoveAll(s.handle)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The inbound loop blocks in ReadEnvelope; closing the conn is the only
	// way to interrupt it once the session is cancelled.
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()
		s.outbound(ctx, sub)
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		s.inbound()
	}()

	wg.Wait()
}

// outbound consumes the session's hub subscription and forwards envelopes
// to the peer. Binary envelopes pass through the router; everything else
// is forwarded verbatim. Any send failure ends the loop.
func (s *Session) outbound(ctx context.Context, sub *Subscription) {
	for {
		select {
		case <-ctx.Done():
			return

		case env := <-sub.C():
			switch env.Kind {
			case KindText, KindPing, KindPong:
				if err := s.conn.WriteEnvelope(env); err != nil {
					s.logger.Debug("outbound send failed", "kind", env.Kind.String(), "error", err)
					return
				}

			case KindBinary:
				body, ok := s.router.Route(env.Data, s.handle)
				if !ok {
					continue
				}
				if err := s.conn.WriteEnvelope(BinaryEnvelope(body)); err != nil {
					s.logger.Debug("outbound send failed", "kind", env.Kind.String(), "error", err)
					return
				}
			}
		}
	}
}

// inbound consumes frames from the peer. Text frames may register the peer
// before being rebroadcast; binary frames are published untouched; a close
// frame clears the peer's registrations and ends the loop cleanly.
func (s *Session) inbound() {
	for {
		env, err := s.conn.ReadEnvelope()
		if err != nil {
			s.logger.Debug("inbound read failed", "error", err)
			return
		}

		switch env.Kind {
		case KindText:
			if hs, err := DecodeHandshake(env.Text); err == nil {
				s.registry.Register(hs.Hash, s.handle)
				s.logger.Debug("peer registered", "hash", hs.Hash, "connected", hs.Connected)
			}
			// Handshake or not, the text is broadcast unchanged.
			s.hub.Publish(env)

		case KindBinary:
			// Routing decisions belong to the outbound loops, not the
			// publisher.
			s.hub.Publish(env)

		case KindClose:
			s.registry.RemoveAll(s.handle)
			s.logger.Debug("peer closed", "code", env.Code, "reason", env.Reason)
			return

		case KindPing, KindPong:
			// Informational only.
		}
	}
}
