package websocket

import (
	"net/http"
	"time"

	"github.com/tunnelvision/server/internal/eventbus"
	"github.com/tunnelvision/server/internal/logging"
	"github.com/tunnelvision/server/pkg/relay"
)

// WithRegistry sets the shared connection registry
func WithRegistry(registry *relay.Registry) ServerOption {
	return func(o *ServerOptions) {
		o.Registry = registry
	}
}

// WithHub sets the shared broadcast hub
func WithHub(hub *relay.Hub) ServerOption {
	return func(o *ServerOptions) {
		o.Hub = hub
	}
}

// WithLogger sets the logger for the server
func WithLogger(logger *logging.Logger) ServerOption {
	return func(o *ServerOptions) {
		o.Logger = logger
	}
}

// WithEventBus sets the event bus for the server
func WithEventBus(eventBus eventbus.Bus) ServerOption {
	return func(o *ServerOptions) {
		o.EventBus = eventBus
	}
}

// WithCheckOrigin sets the check origin function
func WithCheckOrigin(checkOrigin func(r *http.Request) bool) ServerOption {
	return func(o *ServerOptions) {
		o.CheckOrigin = checkOrigin
	}
}

// WithConnOptions sets per-connection options
func WithConnOptions(conn ConnOptions) ServerOption {
	return func(o *ServerOptions) {
		o.Conn = conn
	}
}

// WithPingInterval sets the keepalive ping interval. Zero disables
// keepalive pings.
func WithPingInterval(interval time.Duration) ServerOption {
	return func(o *ServerOptions) {
		o.PingInterval = interval
	}
}
