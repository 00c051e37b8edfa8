// Package watcher reloads an option source when its file changes.
package watcher

import (
	"sync"
	"time"
)

// DefaultDebounce is used when a zero window is requested
const DefaultDebounce = 250 * time.Millisecond

// Debouncer runs only the last of a burst of triggers, once the window has
// passed without a newer one.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	pending func()
}

// NewDebouncer creates a Debouncer; a zero window means DefaultDebounce
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Debouncer{window: window}
}

// Trigger schedules fn, replacing whatever was scheduled before
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq
	d.pending = fn

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		if run := d.take(seq); run != nil {
			run()
		}
	})
}

// take claims the pending callback if seq is still current. A timer that
// fired after Stop lost the race sees a newer seq and does nothing.
func (d *Debouncer) take(seq uint64) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq || d.pending == nil {
		return nil
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	return fn
}

// Flush runs the pending callback now, if any, and reports whether it ran
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.pending
	d.pending = nil
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// Cancel drops any pending callback
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a callback is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Window returns the debounce window
func (d *Debouncer) Window() time.Duration {
	return d.window
}
