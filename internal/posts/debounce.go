package posts

import (
	"sync"
	"time"
)

// afterFunc schedules f after d and returns a function that cancels it,
// reporting whether the call was prevented. time.AfterFunc satisfies it
// through realAfter; tests substitute a manual clock.
type afterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfter(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Debouncer runs the most recently scheduled function once the delay has
// passed without another Schedule call. It has a single pending slot:
// scheduling replaces whatever has not fired yet.
type Debouncer struct {
	delay time.Duration
	after afterFunc

	mu   sync.Mutex
	stop func() bool
	seq  uint64
}

// NewDebouncer returns a Debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return newDebouncer(delay, realAfter)
}

func newDebouncer(delay time.Duration, after afterFunc) *Debouncer {
	if after == nil {
		after = realAfter
	}
	return &Debouncer{delay: delay, after: after}
}

// Schedule replaces the pending function with f.
func (d *Debouncer) Schedule(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stop != nil {
		d.stop()
	}
	d.seq++
	seq := d.seq
	d.stop = d.after(d.delay, func() {
		d.mu.Lock()
		// A timer that fired while being replaced must not run.
		if d.seq != seq {
			d.mu.Unlock()
			return
		}
		d.stop = nil
		d.mu.Unlock()
		f()
	})
}

// Cancel drops the pending function, if any, and reports whether one was
// pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.stop == nil {
		return false
	}
	d.stop()
	d.stop = nil
	return true
}

// Pending reports whether a function is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop != nil
}
