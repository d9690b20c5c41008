package search

import (
	"sync"
	"time"
)

// Debouncer holds at most one pending action. Scheduling a new action
// replaces the pending one.
//
// Actions always run on the timer's goroutine, never inline in Schedule, even
// with a zero delay.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	seq   uint64 // detects timer callbacks that fired after being replaced
}

// Schedule cancels any pending action and runs action once after delay.
func (d *Debouncer) Schedule(delay time.Duration, action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.seq++
	currentSeq := d.seq

	d.timer = time.AfterFunc(max(delay, 0), func() {
		d.mu.Lock()
		if d.seq != currentSeq {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		action()
	})
}

// Cancel disarms the pending action without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}

// Pending reports whether an action is armed and has not fired yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
