package config

import "time"

// Config is the root configuration for a dashwatch instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InstanceConfig identifies this dashwatch instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// RealtimeConfig holds realtime synchronization client settings.
type RealtimeConfig struct {
	URL                  string        `yaml:"url"`
	Token                string        `yaml:"token"` // Optional bearer token, sent as ?token= query parameter
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
	PongTimeout          time.Duration `yaml:"pong_timeout"`
	HandshakeTimeout     time.Duration `yaml:"handshake_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
