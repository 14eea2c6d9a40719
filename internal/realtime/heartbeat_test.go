package realtime

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHeartbeatSendsPings(t *testing.T) {
	hb := newHeartbeat(10*time.Millisecond, time.Hour, discardLogger())
	defer hb.stopNow()

	pings := &counter{}
	go hb.run(func() error {
		pings.inc()
		return nil
	}, func() {
		t.Error("stale callback fired with a generous timeout")
	})

	waitFor(t, func() bool { return pings.get() >= 3 }, "expected at least 3 pings")
}

func TestHeartbeatDetectsStaleConnection(t *testing.T) {
	hb := newHeartbeat(10*time.Millisecond, 30*time.Millisecond, discardLogger())
	defer hb.stopNow()

	stale := make(chan struct{})
	go hb.run(func() error { return nil }, func() {
		close(stale)
	})

	select {
	case <-stale:
	case <-time.After(2 * time.Second):
		t.Fatal("stale callback never fired despite server silence")
	}
}

func TestHeartbeatTouchKeepsConnectionAlive(t *testing.T) {
	hb := newHeartbeat(10*time.Millisecond, 50*time.Millisecond, discardLogger())
	defer hb.stopNow()

	staleFired := make(chan struct{})
	go hb.run(func() error { return nil }, func() {
		close(staleFired)
	})

	// Simulate regular pongs for a while, then confirm the loop stayed up.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		hb.touch()
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-staleFired:
		t.Fatal("connection declared stale while pongs were arriving")
	default:
	}
}

func TestHeartbeatStopNowHaltsLoop(t *testing.T) {
	hb := newHeartbeat(10*time.Millisecond, time.Hour, discardLogger())

	done := make(chan struct{})
	go func() {
		hb.run(func() error { return nil }, func() {})
		close(done)
	}()

	hb.stopNow()
	hb.stopNow() // idempotent

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after stopNow")
	}
}
