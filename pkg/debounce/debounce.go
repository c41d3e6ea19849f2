// Package debounce provides a cancellable coalescing timer: every Bump
// restarts the delay, so the owner only observes the settled value.
package debounce

import "time"

// Debouncer schedules a single pending fire. It is not safe for
// concurrent use; it is meant to be owned by one event loop that
// selects on C.
type Debouncer struct {
	delay time.Duration
	timer *time.Timer
	armed bool
}

// New creates a debouncer with the given delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Bump schedules a fire after the configured delay, cancelling any
// pending one.
func (d *Debouncer) Bump() {
	if d.timer == nil {
		d.timer = time.NewTimer(d.delay)
		d.armed = true
		return
	}
	if !d.timer.Stop() && d.armed {
		// Drain a fire that raced with the reset.
		select {
		case <-d.timer.C:
		default:
		}
	}
	d.timer.Reset(d.delay)
	d.armed = true
}

// C returns the fire channel, or nil when nothing is scheduled so that
// a select on it blocks forever.
func (d *Debouncer) C() <-chan time.Time {
	if d.timer == nil || !d.armed {
		return nil
	}
	return d.timer.C
}

// Fired marks the pending schedule as consumed. Call it after receiving
// from C so that C returns nil until the next Bump.
func (d *Debouncer) Fired() {
	d.armed = false
}

// Stop cancels any pending fire.
func (d *Debouncer) Stop() {
	if d.timer == nil {
		return
	}
	if !d.timer.Stop() && d.armed {
		select {
		case <-d.timer.C:
		default:
		}
	}
	d.armed = false
}
