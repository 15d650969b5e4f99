package service

import (
	"sync"
	"time"
)

// Debouncer holds at most one pending task. Scheduling a new task replaces
// the pending one (trailing edge, last call wins).
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	run   func(gen uint64)
	drop  func()
	gen   uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule arms run to fire after the delay. If a task was pending, its drop
// callback is invoked instead of its run. The generation passed to run and
// returned here identifies this task for CancelGeneration and Generation.
func (d *Debouncer) Schedule(run func(gen uint64), drop func()) uint64 {
	d.mu.Lock()
	replaced := d.takePendingLocked()
	d.gen++
	gen := d.gen
	d.run = run
	d.drop = drop
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
	d.mu.Unlock()

	if replaced != nil {
		replaced()
	}
	return gen
}

// Cancel drops the pending task, if any, and reports whether there was one.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	dropped := d.takePendingLocked()
	d.mu.Unlock()

	if dropped != nil {
		dropped()
		return true
	}
	return false
}

// Invalidate drops the pending task and advances the generation, so a task
// that already fired sees itself as stale when it finishes.
func (d *Debouncer) Invalidate() {
	d.mu.Lock()
	dropped := d.takePendingLocked()
	d.gen++
	d.mu.Unlock()

	if dropped != nil {
		dropped()
	}
}

// CancelGeneration drops the pending task only if it is still gen.
func (d *Debouncer) CancelGeneration(gen uint64) bool {
	d.mu.Lock()
	if d.gen != gen {
		d.mu.Unlock()
		return false
	}
	dropped := d.takePendingLocked()
	d.mu.Unlock()

	if dropped != nil {
		dropped()
		return true
	}
	return false
}

// Flush runs the pending task now instead of waiting for the timer.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.run == nil {
		d.mu.Unlock()
		return false
	}
	d.timer.Stop()
	run, gen := d.run, d.gen
	d.clearLocked()
	d.mu.Unlock()

	run(gen)
	return true
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.run != nil
}

// Generation is the id of the most recently scheduled task.
func (d *Debouncer) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A timer that lost the race with Schedule or Cancel finds a newer
	// generation or nothing pending.
	if gen != d.gen || d.run == nil {
		d.mu.Unlock()
		return
	}
	run := d.run
	d.clearLocked()
	d.mu.Unlock()

	run(gen)
}

// takePendingLocked stops the pending timer and returns its drop callback.
func (d *Debouncer) takePendingLocked() func() {
	if d.run == nil {
		return nil
	}
	d.timer.Stop()
	drop := d.drop
	d.clearLocked()
	if drop == nil {
		return func() {}
	}
	return drop
}

func (d *Debouncer) clearLocked() {
	d.timer = nil
	d.run = nil
	d.drop = nil
}
