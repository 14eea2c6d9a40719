package realtime

import (
	"log/slog"
	"sync"
	"time"
)

// heartbeat is the Heartbeat Monitor for one live connection. It sends a
// ping frame on a fixed interval and declares the connection stale when
// nothing has been heard from the server for longer than timeout. One
// heartbeat belongs to exactly one connection; it is created on open and
// stopped on loss or explicit disconnect, and never runs otherwise.
type heartbeat struct {
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	lastSeen time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

func newHeartbeat(interval, timeout time.Duration, logger *slog.Logger) *heartbeat {
	return &heartbeat{
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		lastSeen: time.Now(),
		stop:     make(chan struct{}),
	}
}

// run sends keep-alive probes until stopped. When the server stays silent
// past the timeout, onStale is called once and the loop exits.
func (h *heartbeat) run(send func() error, onStale func()) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			if err := send(); err != nil {
				h.logger.Debug("failed to send ping", "error", err)
			}

			h.mu.Lock()
			silence := time.Since(h.lastSeen)
			h.mu.Unlock()

			if h.timeout > 0 && silence > h.timeout {
				h.logger.Warn("no pong received, connection stale",
					"silence", silence,
					"timeout", h.timeout,
				)
				onStale()
				return
			}
		}
	}
}

// touch records evidence that the server is alive (pong or heartbeat frame).
func (h *heartbeat) touch() {
	h.mu.Lock()
	h.lastSeen = time.Now()
	h.mu.Unlock()
}

// stopNow halts the probe loop. Safe to call more than once.
func (h *heartbeat) stopNow() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}
