package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Realtime holds the Prometheus collectors for the realtime client.
// A nil *Realtime is valid and records nothing, so the client does not
// need to care whether metrics are wired up.
type Realtime struct {
	connected     prometheus.Gauge
	reconnects    prometheus.Counter
	frames        *prometheus.CounterVec
	decodeErrors  prometheus.Counter
	subscriptions prometheus.Gauge
}

// NewRealtime registers the realtime client collectors with reg.
func NewRealtime(reg prometheus.Registerer) *Realtime {
	factory := promauto.With(reg)

	return &Realtime{
		connected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "proxydash",
			Subsystem: "realtime",
			Name:      "connected",
			Help:      "Whether the realtime connection is currently established (1 or 0)",
		}),

		reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "proxydash",
			Subsystem: "realtime",
			Name:      "reconnect_attempts_total",
			Help:      "Total number of reconnection attempts",
		}),

		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proxydash",
			Subsystem: "realtime",
			Name:      "frames_total",
			Help:      "Total number of inbound frames by frame type",
		}, []string{"type"}),

		decodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "proxydash",
			Subsystem: "realtime",
			Name:      "decode_errors_total",
			Help:      "Total number of inbound frames dropped as malformed",
		}),

		subscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "proxydash",
			Subsystem: "realtime",
			Name:      "subscription_keys",
			Help:      "Number of active subscription keys",
		}),
	}
}

// SetConnected records the connection state.
func (m *Realtime) SetConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}

// IncReconnect counts one reconnection attempt.
func (m *Realtime) IncReconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

// IncFrame counts one inbound frame of the given type.
func (m *Realtime) IncFrame(frameType string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(frameType).Inc()
}

// IncDecodeError counts one dropped malformed frame.
func (m *Realtime) IncDecodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

// SetSubscriptions records the current number of subscription keys.
func (m *Realtime) SetSubscriptions(n int) {
	if m == nil {
		return
	}
	m.subscriptions.Set(float64(n))
}
