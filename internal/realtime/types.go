package realtime

import (
	"errors"
	"time"

	"github.com/huguesloyatho/proxydash-sub002/internal/protocol"
)

// Errors
var (
	ErrConnectInProgress = errors.New("connect already in progress")
	ErrConnectAborted    = errors.New("connect superseded by disconnect")
	ErrStaleConnection   = errors.New("connection stale (no pong)")
)

// UpdateFunc receives widget_update payloads for a subscription.
type UpdateFunc func(protocol.WidgetUpdate)

// ErrorFunc receives widget_error payloads for an id-keyed subscription.
type ErrorFunc func(protocol.WidgetError)

// StatusFunc observes connection-state transitions as a boolean connected flag.
type StatusFunc func(connected bool)

// KeyKind discriminates the two subscription key families.
type KeyKind int

const (
	// KeyWidget keys a subscription by numeric widget id.
	KeyWidget KeyKind = iota

	// KeyType keys a subscription by widget type name.
	KeyType
)

// SubscriptionKey identifies the audience a frame fans out to. A key is
// either id-keyed or type-keyed, never both; use WidgetKey and TypeKey.
type SubscriptionKey struct {
	Kind       KeyKind
	WidgetID   int
	WidgetType string
}

// WidgetKey builds an id-keyed subscription key.
func WidgetKey(id int) SubscriptionKey {
	return SubscriptionKey{Kind: KeyWidget, WidgetID: id}
}

// TypeKey builds a type-keyed subscription key.
func TypeKey(name string) SubscriptionKey {
	return SubscriptionKey{Kind: KeyType, WidgetType: name}
}

// Status is a synchronous, side-effect-free snapshot for diagnostics.
type Status struct {
	Connected         bool     `json:"connected"`
	WidgetIDs         []int    `json:"subscribed_widgets"`
	Types             []string `json:"subscribed_types"`
	ReconnectAttempts int      `json:"reconnect_attempts"`
}

// Config configures a realtime Client.
type Config struct {
	URL                  string        // Realtime endpoint (ws:// or wss://)
	Token                string        // Optional bearer token, sent as ?token= query parameter
	MaxReconnectAttempts int           // Reconnect attempts before settling Disconnected
	ReconnectBaseDelay   time.Duration // Delay before the first reconnect attempt
	ReconnectMaxDelay    time.Duration // Cap on the exponential backoff delay
	HeartbeatInterval    time.Duration // Interval between outbound ping frames
	PongTimeout          time.Duration // Max silence before the connection is declared stale
	HandshakeTimeout     time.Duration // Dial handshake deadline
	WriteTimeout         time.Duration // Write deadline for outbound frames
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxReconnectAttempts: 5,
		ReconnectBaseDelay:   1 * time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		HeartbeatInterval:    25 * time.Second,
		PongTimeout:          75 * time.Second,
		HandshakeTimeout:     10 * time.Second,
		WriteTimeout:         5 * time.Second,
	}
}
