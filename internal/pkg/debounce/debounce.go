// Package debounce provides an idle timer that fires once a burst of calls has settled.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs a function after duration has elapsed without a new call.
type Debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
}

// New creates a new debouncer with the specified duration.
func New(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
	}
}

// Debounce schedules fn after the debounce duration. Rapid successive calls reset the timer,
// so only the last fn runs.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.duration, fn)
}

// Pending reports whether a scheduled call has not fired or been cancelled yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel cancels any pending call. It returns true if a call was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}

	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}

// Fired clears the pending state. Scheduled functions call it first so that Pending
// turns false once they have run.
func (d *Debouncer) Fired() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()
}
