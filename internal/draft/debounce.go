package draft

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one callback after a quiet
// window. The callback runs on the timer goroutine and must capture state at
// fire time, not at trigger time.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	timer   *time.Timer
	fn      func()
	stopped bool
}

func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	return &Debouncer{window: window, fn: fn}
}

// Trigger (re)starts the quiet window. Each new edit pushes the fire time out.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	fn := d.fn
	d.mu.Unlock()
	fn()
}

// Flush runs the pending callback immediately, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.timer != nil && d.timer.Stop()
	d.timer = nil
	fn := d.fn
	stopped := d.stopped
	d.mu.Unlock()
	if pending && !stopped {
		fn()
	}
}

// Stop cancels any pending fire; the debouncer cannot be reused.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
