package throttle

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	reasons []Reason
	ch      chan struct{}
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan struct{}, 16)}
}

func (r *recorder) run(reason Reason) {
	r.mu.Lock()
	r.reasons = append(r.reasons, reason)
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *recorder) snapshot() []Reason {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Reason(nil), r.reasons...)
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for run")
	}
}

func TestLeadingAndSingleTrailingRun(t *testing.T) {
	rec := newRecorder()
	th := New(40*time.Millisecond, rec.run)
	defer th.Stop()

	th.Trigger(ReasonMutation)
	rec.wait(t)
	th.Trigger(ReasonMutation)
	th.Trigger(ReasonGeometry)
	th.Trigger(ReasonCommand)
	rec.wait(t)

	select {
	case <-rec.ch:
		t.Fatalf("expected triggers inside the window to collapse")
	case <-time.After(80 * time.Millisecond):
	}
	got := rec.snapshot()
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %v", got)
	}
	if got[0] != ReasonMutation || got[1] != ReasonCommand {
		t.Fatalf("unexpected reasons %v", got)
	}
}

func TestStopCancelsTrailingRun(t *testing.T) {
	rec := newRecorder()
	th := New(30*time.Millisecond, rec.run)
	th.Trigger(ReasonCommand)
	rec.wait(t)
	th.Trigger(ReasonMutation)
	th.Stop()
	select {
	case <-rec.ch:
		t.Fatalf("expected no run after stop")
	case <-time.After(60 * time.Millisecond):
	}
	th.Trigger(ReasonCommand)
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("expected triggers after stop to be ignored, got %v", got)
	}
}

func TestQuietPeriodRunsImmediately(t *testing.T) {
	rec := newRecorder()
	th := New(10*time.Millisecond, rec.run)
	defer th.Stop()
	base := time.Now()
	th.now = func() time.Time { return base }
	th.Trigger(ReasonMutation)
	rec.wait(t)
	th.now = func() time.Time { return base.Add(time.Second) }
	th.Trigger(ReasonGeometry)
	rec.wait(t)
	if got := rec.snapshot(); len(got) != 2 || got[1] != ReasonGeometry {
		t.Fatalf("expected immediate second run, got %v", got)
	}
}
