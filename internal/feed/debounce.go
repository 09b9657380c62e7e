package feed

import (
	"sync"
	"time"
)

// debouncer coalesces a burst of triggers into one action: each Trigger
// cancels the pending timer and starts a new one, so at most one timer is
// pending at any moment and only the last action of a burst fires.
//
// Cancellation is generation-based and re-checked after the delay elapses: a
// timer that lost a Stop/Trigger race still refuses to run stale work.
type debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

// Trigger schedules fn after the debounce delay, cancelling any pending
// schedule first. Last write wins.
func (d *debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		stale := gen != d.gen
		d.mu.Unlock()
		if stale {
			return
		}
		fn()
	})
}

// Stop cancels any pending trigger.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
