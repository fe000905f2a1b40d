package config

import (
	"time"

	"github.com/tunnelvision/server/internal/logging"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig   `json:"server" yaml:"server"`
	Relay   RelayConfig    `json:"relay" yaml:"relay"`
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host              string        `json:"host" yaml:"host"`
	Port              int           `json:"port" yaml:"port"`
	StaticDir         string        `json:"static_dir" yaml:"static_dir"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	IdleTimeout       time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// RelayConfig represents relay core and websocket transport configuration
type RelayConfig struct {
	// BufferSize is the per-subscriber hub queue depth.
	BufferSize int `json:"buffer_size" yaml:"buffer_size"`

	// MaxMessageSize bounds a single websocket message. Screen frames are
	// large, so the default is generous.
	MaxMessageSize int64 `json:"max_message_size" yaml:"max_message_size"`

	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	PingInterval time.Duration `json:"ping_interval" yaml:"ping_interval"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8765,
			StaticDir:         "./dist",
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Relay: RelayConfig{
			BufferSize:     1000,
			MaxMessageSize: 256 << 20, // 256MB
			WriteTimeout:   10 * time.Second,
			ReadTimeout:    60 * time.Second,
			PingInterval:   30 * time.Second,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return NewConfigError("server.port", "invalid port number")
	}

	if c.Server.StaticDir == "" {
		return NewConfigError("server.static_dir", "static directory is required")
	}

	if c.Relay.BufferSize <= 0 {
		return NewConfigError("relay.buffer_size", "buffer size must be positive")
	}

	if c.Relay.MaxMessageSize <= 0 {
		return NewConfigError("relay.max_message_size", "message size limit must be positive")
	}

	if c.Relay.WriteTimeout < 0 {
		return NewConfigError("relay.write_timeout", "timeout cannot be negative")
	}

	if c.Relay.ReadTimeout < 0 {
		return NewConfigError("relay.read_timeout", "timeout cannot be negative")
	}

	if c.Relay.PingInterval < 0 {
		return NewConfigError("relay.ping_interval", "interval cannot be negative")
	}

	return nil
}
