package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRealtime(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRealtime(reg)

	m.SetConnected(true)
	m.IncReconnect()
	m.IncFrame("widget_update")
	m.IncFrame("widget_update")
	m.IncDecodeError()
	m.SetSubscriptions(3)

	if got := testutil.ToFloat64(m.connected); got != 1 {
		t.Errorf("connected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.reconnects); got != 1 {
		t.Errorf("reconnects = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.frames.WithLabelValues("widget_update")); got != 2 {
		t.Errorf("frames{widget_update} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.subscriptions); got != 3 {
		t.Errorf("subscriptions = %v, want 3", got)
	}

	m.SetConnected(false)
	if got := testutil.ToFloat64(m.connected); got != 0 {
		t.Errorf("connected after disconnect = %v, want 0", got)
	}
}

func TestNilRealtimeIsNoop(t *testing.T) {
	var m *Realtime

	// None of these may panic.
	m.SetConnected(true)
	m.IncReconnect()
	m.IncFrame("pong")
	m.IncDecodeError()
	m.SetSubscriptions(1)
}
