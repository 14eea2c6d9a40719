package realtime

import (
	"testing"
	"time"
)

func TestPendingTimerFires(t *testing.T) {
	var p pendingTimer
	defer p.stop()

	fired := make(chan struct{})
	p.schedule(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled callback never fired")
	}
}

func TestPendingTimerScheduleReplaces(t *testing.T) {
	var p pendingTimer
	defer p.stop()

	first := &counter{}
	second := make(chan struct{})
	p.schedule(50*time.Millisecond, func() { first.inc() })
	p.schedule(10*time.Millisecond, func() { close(second) })

	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement callback never fired")
	}

	time.Sleep(100 * time.Millisecond)
	if got := first.get(); got != 0 {
		t.Errorf("replaced callback fired %d times, want 0", got)
	}
}

func TestPendingTimerStopCancels(t *testing.T) {
	var p pendingTimer

	fired := &counter{}
	p.schedule(20*time.Millisecond, func() { fired.inc() })
	p.stop()

	time.Sleep(100 * time.Millisecond)
	if got := fired.get(); got != 0 {
		t.Errorf("stopped callback fired %d times, want 0", got)
	}
}

func TestPendingTimerStopWithoutSchedule(t *testing.T) {
	var p pendingTimer
	p.stop() // no pending callback, must not panic
}
