// Package debounce delays work until its trigger has been quiet for a fixed
// interval.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently triggered function once no new trigger
// arrived for delay. A trigger replaces any pending one. Functions run on
// their own goroutine.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	idle    *sync.Cond
	timer   *time.Timer
	pending int // scheduled or running functions
	stopped bool
}

func New(delay time.Duration) *Debouncer {
	d := &Debouncer{delay: delay}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Trigger schedules fn, cancelling a pending schedule. It is a no-op after Stop.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.cancelLocked()

	d.pending++
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.done()
		fn()
	})
}

// Cancel drops the pending schedule, if any. A function that already started
// keeps running. It reports whether something was cancelled.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

func (d *Debouncer) cancelLocked() bool {
	if d.timer == nil {
		return false
	}
	cancelled := d.timer.Stop()
	if cancelled {
		d.pending--
		d.idle.Broadcast()
	}
	d.timer = nil
	return cancelled
}

func (d *Debouncer) done() {
	d.mu.Lock()
	d.pending--
	d.idle.Broadcast()
	d.mu.Unlock()
}

// Wait blocks until nothing is scheduled and every started function returned.
func (d *Debouncer) Wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.pending > 0 {
		d.idle.Wait()
	}
}

// Stop cancels pending work and rejects further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.cancelLocked()
}
