// Package throttle rate-limits hint refresh passes.
package throttle

import (
	"sync"
	"time"
)

// Reason names what asked for a refresh.
type Reason string

const (
	// ReasonMutation is a DOM mutation.
	ReasonMutation Reason = "mutation"
	// ReasonGeometry is a scroll, resize or layout change.
	ReasonGeometry Reason = "geometry"
	// ReasonCommand is an explicit user command.
	ReasonCommand Reason = "command"
)

// Throttle runs fn at most once per interval. The first trigger in a quiet
// period runs immediately; triggers inside the window collapse into a single
// trailing run carrying the latest reason.
type Throttle struct {
	interval time.Duration
	fn       func(Reason)
	now      func() time.Time

	mu      sync.Mutex
	last    time.Time
	timer   *time.Timer
	pending Reason
	stopped bool

	runMu sync.Mutex
}

// New constructs a throttle around fn.
func New(interval time.Duration, fn func(Reason)) *Throttle {
	return &Throttle{interval: interval, fn: fn, now: time.Now}
}

// Trigger requests a run.
func (t *Throttle) Trigger(reason Reason) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.pending = reason
		t.mu.Unlock()
		return
	}
	now := t.now()
	elapsed := now.Sub(t.last)
	if t.last.IsZero() || elapsed >= t.interval {
		t.last = now
		t.mu.Unlock()
		t.run(reason)
		return
	}
	t.pending = reason
	t.timer = time.AfterFunc(t.interval-elapsed, t.fire)
	t.mu.Unlock()
}

// Stop cancels a scheduled trailing run and ignores later triggers.
func (t *Throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Throttle) fire() {
	t.mu.Lock()
	t.timer = nil
	if t.stopped {
		t.mu.Unlock()
		return
	}
	reason := t.pending
	t.last = t.now()
	t.mu.Unlock()
	t.run(reason)
}

func (t *Throttle) run(reason Reason) {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	t.fn(reason)
}
