package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Errors
var (
	ErrMissingType = errors.New("frame has no type")
)

// FrameType identifies a wire frame.
type FrameType string

// Outbound frame types.
const (
	FrameSubscribe   FrameType = "subscribe"
	FrameUnsubscribe FrameType = "unsubscribe"
	FramePing        FrameType = "ping"
)

// Inbound frame types.
const (
	FrameConnected    FrameType = "connected"
	FrameSubscribed   FrameType = "subscribed"
	FrameUnsubscribed FrameType = "unsubscribed"
	FramePong         FrameType = "pong"
	FrameHeartbeat    FrameType = "heartbeat"
	FrameWidgetUpdate FrameType = "widget_update"
	FrameWidgetError  FrameType = "widget_error"
	FrameError        FrameType = "error"
)

// Envelope is the wire representation of a single frame.
type Envelope struct {
	Type FrameType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// widgetRef is the data payload of id-keyed subscribe/unsubscribe frames.
type widgetRef struct {
	WidgetID int `json:"widget_id"`
}

// typeRef is the data payload of type-keyed subscribe/unsubscribe frames.
type typeRef struct {
	WidgetType string `json:"widget_type"`
}

// WidgetUpdate is the data payload of a widget_update frame.
type WidgetUpdate struct {
	WidgetID   int             `json:"widget_id"`
	WidgetType string          `json:"widget_type"`
	Data       json.RawMessage `json:"data"`
	Timestamp  int64           `json:"timestamp"` // Unix milliseconds
}

// WidgetError is the data payload of a widget_error frame.
type WidgetError struct {
	WidgetID   int    `json:"widget_id"`
	WidgetType string `json:"widget_type"`
	Error      string `json:"error"`
	Timestamp  int64  `json:"timestamp"` // Unix milliseconds
}

// SubscribeWidget builds a subscribe frame keyed by widget id.
func SubscribeWidget(id int) Envelope {
	return Envelope{Type: FrameSubscribe, Data: mustData(widgetRef{WidgetID: id})}
}

// SubscribeType builds a subscribe frame keyed by widget type.
func SubscribeType(name string) Envelope {
	return Envelope{Type: FrameSubscribe, Data: mustData(typeRef{WidgetType: name})}
}

// UnsubscribeWidget builds an unsubscribe frame keyed by widget id.
func UnsubscribeWidget(id int) Envelope {
	return Envelope{Type: FrameUnsubscribe, Data: mustData(widgetRef{WidgetID: id})}
}

// UnsubscribeType builds an unsubscribe frame keyed by widget type.
func UnsubscribeType(name string) Envelope {
	return Envelope{Type: FrameUnsubscribe, Data: mustData(typeRef{WidgetType: name})}
}

// Ping builds a keep-alive probe frame.
func Ping() Envelope {
	return Envelope{Type: FramePing}
}

// Encode serializes a frame for the wire.
func Encode(e Envelope) ([]byte, error) {
	if e.Type == "" {
		return nil, ErrMissingType
	}
	return json.Marshal(e)
}

// Decode parses a raw frame into an Envelope.
func Decode(raw []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode frame: %w", err)
	}
	if e.Type == "" {
		return Envelope{}, ErrMissingType
	}
	return e, nil
}

// WidgetUpdate narrows a widget_update envelope to its payload.
func (e Envelope) WidgetUpdate() (WidgetUpdate, error) {
	if e.Type != FrameWidgetUpdate {
		return WidgetUpdate{}, fmt.Errorf("frame type is %q, not %q", e.Type, FrameWidgetUpdate)
	}
	var u WidgetUpdate
	if err := json.Unmarshal(e.Data, &u); err != nil {
		return WidgetUpdate{}, fmt.Errorf("decode widget_update data: %w", err)
	}
	return u, nil
}

// WidgetError narrows a widget_error envelope to its payload.
func (e Envelope) WidgetError() (WidgetError, error) {
	if e.Type != FrameWidgetError {
		return WidgetError{}, fmt.Errorf("frame type is %q, not %q", e.Type, FrameWidgetError)
	}
	var w WidgetError
	if err := json.Unmarshal(e.Data, &w); err != nil {
		return WidgetError{}, fmt.Errorf("decode widget_error data: %w", err)
	}
	return w, nil
}

// mustData marshals a payload from the closed constructor set.
// These payloads contain only plain fields and cannot fail to marshal.
func mustData(v interface{}) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
