package framereg

import (
	"context"
	"slices"

	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

// Registry tracks the labels assigned to every frame of one tab. A label is
// owned by at most one frame at a time. Registry is not safe for concurrent
// use; its owner serializes access.
type Registry struct {
	frames map[schema.FrameID]*LabelSet
	owner  map[schema.Label]schema.FrameID
	log    pslog.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger pslog.Logger) *Registry {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Registry{
		frames: make(map[schema.FrameID]*LabelSet),
		owner:  make(map[schema.Label]schema.FrameID),
		log:    logger,
	}
}

// Assign records labels as held by frame. Labels owned by a different frame are
// left untouched and returned as rejected.
func (r *Registry) Assign(frame schema.FrameID, labels []schema.Label) (rejected []schema.Label) {
	set := r.frames[frame]
	for _, label := range labels {
		if current, ok := r.owner[label]; ok && current != frame {
			r.log.Warn("registry assign rejected", "frame", frame, "label", label, "owner", current)
			rejected = append(rejected, label)
			continue
		}
		if set == nil {
			set = NewLabelSet()
			r.frames[frame] = set
		}
		set.AddLabelsInFrame(label)
		r.owner[label] = frame
	}
	return rejected
}

// Release drops labels held by frame and returns the ones actually removed.
// Labels not held by frame are skipped; labels held by another frame are
// logged since they indicate a confused sender.
func (r *Registry) Release(frame schema.FrameID, labels []schema.Label) []schema.Label {
	set := r.frames[frame]
	var released []schema.Label
	for _, label := range schema.UniqueLabels(labels) {
		current, ok := r.owner[label]
		if !ok {
			continue
		}
		if current != frame {
			r.log.Warn("registry release rejected", "frame", frame, "label", label, "owner", current)
			continue
		}
		set.DeleteLabelsInFrame(label)
		delete(r.owner, label)
		released = append(released, label)
	}
	r.dropIfEmpty(frame)
	return released
}

// Orphans returns the labels frame holds that are missing from active.
func (r *Registry) Orphans(frame schema.FrameID, active []schema.Label) []schema.Label {
	set := r.frames[frame]
	if set == nil {
		return nil
	}
	live := make(map[schema.Label]struct{}, len(active))
	for _, label := range active {
		live[label] = struct{}{}
	}
	var orphans []schema.Label
	for _, label := range set.GetLabelsInFrame() {
		if _, ok := live[label]; !ok {
			orphans = append(orphans, label)
		}
	}
	return orphans
}

// ClearFrame forgets every label of frame and returns them.
func (r *Registry) ClearFrame(frame schema.FrameID) []schema.Label {
	set := r.frames[frame]
	if set == nil {
		return nil
	}
	labels := set.GetLabelsInFrame()
	for _, label := range labels {
		delete(r.owner, label)
	}
	set.ClearLabelsInFrame()
	delete(r.frames, frame)
	return labels
}

// Labels returns the labels held by frame.
func (r *Registry) Labels(frame schema.FrameID) []schema.Label {
	set := r.frames[frame]
	if set == nil {
		return nil
	}
	return set.GetLabelsInFrame()
}

// Owner reports which frame holds label.
func (r *Registry) Owner(label schema.Label) (schema.FrameID, bool) {
	frame, ok := r.owner[label]
	return frame, ok
}

// Frames returns the frames holding at least one label, sorted.
func (r *Registry) Frames() []schema.FrameID {
	out := make([]schema.FrameID, 0, len(r.frames))
	for frame := range r.frames {
		out = append(out, frame)
	}
	slices.Sort(out)
	return out
}

// Len reports the number of assigned labels across all frames.
func (r *Registry) Len() int {
	return len(r.owner)
}

// Snapshot returns a copy of every frame's labels.
func (r *Registry) Snapshot() map[schema.FrameID][]schema.Label {
	out := make(map[schema.FrameID][]schema.Label, len(r.frames))
	for frame, set := range r.frames {
		out[frame] = set.GetLabelsInFrame()
	}
	return out
}

// Reset forgets every frame.
func (r *Registry) Reset() {
	clear(r.frames)
	clear(r.owner)
}

func (r *Registry) dropIfEmpty(frame schema.FrameID) {
	if set := r.frames[frame]; set != nil && set.Len() == 0 {
		delete(r.frames, frame)
	}
}
