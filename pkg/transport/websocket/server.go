package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"
	"github.com/tunnelvision/server/internal/eventbus"
	"github.com/tunnelvision/server/internal/logging"
	"github.com/tunnelvision/server/pkg/relay"
)

// ServerOptions represents websocket server options
type ServerOptions struct {
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
	Conn            ConnOptions
	PingInterval    time.Duration
	Registry        *relay.Registry
	Hub             *relay.Hub
	Logger          *logging.Logger
	EventBus        eventbus.Bus
}

// ServerOption is a function that configures ServerOptions
type ServerOption func(*ServerOptions)

// Server upgrades HTTP requests into relay sessions. Every accepted
// connection gets a fresh handle and runs until either session loop ends.
type Server struct {
	upgrader websocket.Upgrader
	options  ServerOptions
	logger   *logging.Logger
}

// NewServer creates a new websocket relay server
func NewServer(opts ...ServerOption) *Server {
	options := ServerOptions{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Conn:            DefaultConnOptions(),
		PingInterval:    30 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			return true // viewer and sharer run on arbitrary origins
		},
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = logging.New(logging.Config{Level: "info", Format: "text"})
	}

	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  options.ReadBufferSize,
			WriteBufferSize: options.WriteBufferSize,
			CheckOrigin:     options.CheckOrigin,
		},
		options: options,
		logger:  options.Logger,
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade error",
			"error", err,
			"remote_addr", r.RemoteAddr,
		)
		return
	}

	handle := relay.ConnHandle(xid.New().String())
	conn := NewConn(ws, s.options.Conn)

	s.logger.Info("peer connected",
		"handle", string(handle),
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
	)

	if s.options.EventBus != nil {
		event := eventbus.NewEvent(
			eventbus.EventPeerConnected,
			"websocket-server",
			map[string]string{
				"handle":      string(handle),
				"remote_addr": r.RemoteAddr,
			},
		)
		s.options.EventBus.PublishAsync(event)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if s.options.PingInterval > 0 {
		go s.keepalive(ctx, conn)
	}

	session := relay.NewSession(handle, conn, s.options.Registry, s.options.Hub, s.logger)
	session.Run(ctx)

	if s.options.EventBus != nil {
		event := eventbus.NewEvent(
			eventbus.EventPeerDisconnected,
			"websocket-server",
			map[string]string{
				"handle": string(handle),
			},
		)
		s.options.EventBus.PublishAsync(event)
	}

	s.logger.Info("peer disconnected", "handle", string(handle))
}

// keepalive pings the peer at the configured interval so idle connections
// are detected by the transport, not the session.
func (s *Server) keepalive(ctx context.Context, conn *Conn) {
	ticker := time.NewTicker(s.options.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteEnvelope(relay.PingEnvelope(nil)); err != nil {
				return
			}
		}
	}
}
