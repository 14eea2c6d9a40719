package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Realtime.URL == "" {
		return errors.New("realtime.url is required")
	}
	u, err := url.Parse(c.Realtime.URL)
	if err != nil {
		return fmt.Errorf("realtime.url is not a valid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("realtime.url scheme must be ws or wss, got %q", u.Scheme)
	}

	if c.Realtime.MaxReconnectAttempts < 0 {
		return errors.New("realtime.max_reconnect_attempts must be >= 0")
	}
	if c.Realtime.ReconnectBaseDelay <= 0 {
		return errors.New("realtime.reconnect_base_delay must be > 0")
	}
	if c.Realtime.ReconnectMaxDelay < c.Realtime.ReconnectBaseDelay {
		return errors.New("realtime.reconnect_max_delay must be >= reconnect_base_delay")
	}
	if c.Realtime.HeartbeatInterval <= 0 {
		return errors.New("realtime.heartbeat_interval must be > 0")
	}
	if c.Realtime.PongTimeout <= c.Realtime.HeartbeatInterval {
		return errors.New("realtime.pong_timeout must be > heartbeat_interval")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return errors.New("metrics.port must be between 1 and 65535")
	}

	return nil
}
