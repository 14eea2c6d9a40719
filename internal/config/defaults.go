package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultURL                  = "ws://localhost:8080/ws"
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectBaseDelay   = 1 * time.Second
	DefaultReconnectMaxDelay    = 30 * time.Second
	DefaultHeartbeatInterval    = 25 * time.Second
	DefaultPongTimeout          = 75 * time.Second
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
)

func (c *Config) applyDefaults() {
	// Realtime defaults
	if c.Realtime.URL == "" {
		c.Realtime.URL = DefaultURL
	}
	if c.Realtime.MaxReconnectAttempts == 0 {
		c.Realtime.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Realtime.ReconnectBaseDelay == 0 {
		c.Realtime.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Realtime.ReconnectMaxDelay == 0 {
		c.Realtime.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Realtime.HeartbeatInterval == 0 {
		c.Realtime.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Realtime.PongTimeout == 0 {
		c.Realtime.PongTimeout = DefaultPongTimeout
	}
	if c.Realtime.HandshakeTimeout == 0 {
		c.Realtime.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Realtime.WriteTimeout == 0 {
		c.Realtime.WriteTimeout = DefaultWriteTimeout
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
