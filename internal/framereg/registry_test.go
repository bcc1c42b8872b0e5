package framereg

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"pkt.systems/hintx/schema"
)

func TestAssignRejectsLabelsOwnedElsewhere(t *testing.T) {
	reg := NewRegistry(nil)
	if rejected := reg.Assign(0, []schema.Label{"a", "b"}); len(rejected) != 0 {
		t.Fatalf("unexpected rejection: %v", rejected)
	}
	rejected := reg.Assign(1, []schema.Label{"b", "c"})
	if diff := cmp.Diff([]schema.Label{"b"}, rejected); diff != "" {
		t.Fatalf("rejected mismatch (-want +got):\n%s", diff)
	}
	if owner, _ := reg.Owner("b"); owner != 0 {
		t.Fatalf("expected b to stay in frame 0, got %d", owner)
	}
	if reg.Len() != 3 {
		t.Fatalf("expected 3 assigned labels, got %d", reg.Len())
	}
}

func TestReleaseOnlyTouchesOwnLabels(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Assign(0, []schema.Label{"a", "b"})
	reg.Assign(1, []schema.Label{"c"})
	released := reg.Release(0, []schema.Label{"a", "a", "c", "zz"})
	if diff := cmp.Diff([]schema.Label{"a"}, released); diff != "" {
		t.Fatalf("released mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]schema.Label{"c"}, reg.Labels(1)); diff != "" {
		t.Fatalf("frame 1 mismatch (-want +got):\n%s", diff)
	}
}

func TestOrphans(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Assign(2, []schema.Label{"a", "b", "c"})
	tests := []struct {
		name   string
		active []schema.Label
		want   []schema.Label
	}{
		{name: "all-live", active: []schema.Label{"a", "b", "c"}, want: nil},
		{name: "none-live", active: nil, want: []schema.Label{"a", "b", "c"}},
		{name: "partial", active: []schema.Label{"b", "x"}, want: []schema.Label{"a", "c"}},
	}
	for _, tc := range tests {
		got := reg.Orphans(2, tc.active)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s: orphans mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestClearFrame(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Assign(0, []schema.Label{"a"})
	reg.Assign(3, []schema.Label{"b", "c"})
	cleared := reg.ClearFrame(3)
	if diff := cmp.Diff([]schema.Label{"b", "c"}, cleared); diff != "" {
		t.Fatalf("cleared mismatch (-want +got):\n%s", diff)
	}
	if _, ok := reg.Owner("b"); ok {
		t.Fatalf("expected b to be unowned after clear")
	}
	if diff := cmp.Diff([]schema.FrameID{0}, reg.Frames()); diff != "" {
		t.Fatalf("frames mismatch (-want +got):\n%s", diff)
	}
	if got := reg.Labels(3); len(got) != 0 {
		t.Fatalf("expected no labels for cleared frame, got %v", got)
	}
}
