package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	raw := []byte(`{"type":"widget_update","data":{"widget_id":7,"widget_type":"counter","data":{"value":42},"timestamp":1705328200000}}`)

	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if env.Type != FrameWidgetUpdate {
		t.Errorf("Type = %q, want %q", env.Type, FrameWidgetUpdate)
	}

	u, err := env.WidgetUpdate()
	if err != nil {
		t.Fatalf("WidgetUpdate failed: %v", err)
	}
	if u.WidgetID != 7 {
		t.Errorf("WidgetID = %d, want 7", u.WidgetID)
	}
	if u.WidgetType != "counter" {
		t.Errorf("WidgetType = %q, want %q", u.WidgetType, "counter")
	}
	if u.Timestamp != 1705328200000 {
		t.Errorf("Timestamp = %d, want 1705328200000", u.Timestamp)
	}
	if string(u.Data) != `{"value":42}` {
		t.Errorf("Data = %s, want {\"value\":42}", u.Data)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("Decode accepted non-JSON input")
	}

	if _, err := Decode([]byte(`{"data":{}}`)); !errors.Is(err, ErrMissingType) {
		t.Errorf("Decode without type: err = %v, want ErrMissingType", err)
	}
}

func TestDecodeWidgetError(t *testing.T) {
	raw := []byte(`{"type":"widget_error","data":{"widget_id":3,"widget_type":"logs","error":"probe failed","timestamp":1705328200000}}`)

	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	we, err := env.WidgetError()
	if err != nil {
		t.Fatalf("WidgetError failed: %v", err)
	}
	if we.WidgetID != 3 {
		t.Errorf("WidgetID = %d, want 3", we.WidgetID)
	}
	if we.Error != "probe failed" {
		t.Errorf("Error = %q, want %q", we.Error, "probe failed")
	}
}

func TestNarrowWrongType(t *testing.T) {
	env := Envelope{Type: FramePong}

	if _, err := env.WidgetUpdate(); err == nil {
		t.Error("WidgetUpdate accepted a pong envelope")
	}
	if _, err := env.WidgetError(); err == nil {
		t.Error("WidgetError accepted a pong envelope")
	}
}

func TestOutboundConstructors(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want string
	}{
		{"subscribe by id", SubscribeWidget(5), `{"type":"subscribe","data":{"widget_id":5}}`},
		{"subscribe by type", SubscribeType("counter"), `{"type":"subscribe","data":{"widget_type":"counter"}}`},
		{"unsubscribe by id", UnsubscribeWidget(5), `{"type":"unsubscribe","data":{"widget_id":5}}`},
		{"unsubscribe by type", UnsubscribeType("counter"), `{"type":"unsubscribe","data":{"widget_type":"counter"}}`},
		{"ping", Ping(), `{"type":"ping"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Encode(tt.env)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if string(raw) != tt.want {
				t.Errorf("Encode = %s, want %s", raw, tt.want)
			}

			// Every outbound frame must round-trip through Decode.
			if _, err := Decode(raw); err != nil {
				t.Errorf("Decode of own output failed: %v", err)
			}
		})
	}
}

func TestEncodeRejectsEmptyType(t *testing.T) {
	if _, err := Encode(Envelope{}); !errors.Is(err, ErrMissingType) {
		t.Errorf("Encode of empty envelope: err = %v, want ErrMissingType", err)
	}
}

func TestUpdatePayloadPreservedVerbatim(t *testing.T) {
	payload := map[string]interface{}{
		"series": []int{1, 2, 3},
		"label":  "cpu",
	}
	data, _ := json.Marshal(payload)
	raw, _ := json.Marshal(map[string]interface{}{
		"type": "widget_update",
		"data": map[string]interface{}{
			"widget_id":   1,
			"widget_type": "chart",
			"data":        json.RawMessage(data),
			"timestamp":   1,
		},
	})

	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	u, err := env.WidgetUpdate()
	if err != nil {
		t.Fatalf("WidgetUpdate failed: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(u.Data, &got); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if got["label"] != "cpu" {
		t.Errorf("payload label = %v, want cpu", got["label"])
	}
}
