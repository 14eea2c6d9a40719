package realtime

import (
	"sync"
	"time"
)

// pendingTimer owns at most one scheduled callback. Scheduling replaces
// any pending callback; stop is a single deterministic cancellation, so
// rapid connect/disconnect cycles cannot leak timers.
type pendingTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

// schedule arranges for fn to run after d, replacing any pending callback.
func (p *pendingTimer) schedule(d time.Duration, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(d, fn)
}

// stop cancels the pending callback, if any. A callback that has already
// started running is not interrupted.
func (p *pendingTimer) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
