// Package framereg tracks which hint labels each frame of a tab holds.
package framereg

import (
	"slices"

	"pkt.systems/hintx/schema"
)

// LabelSet is the set of labels one frame considers in use.
type LabelSet struct {
	labels map[schema.Label]struct{}
}

// NewLabelSet returns an empty set.
func NewLabelSet() *LabelSet {
	return &LabelSet{labels: make(map[schema.Label]struct{})}
}

// AddLabelsInFrame inserts labels. Inserting a present label is a no-op.
func (s *LabelSet) AddLabelsInFrame(labels ...schema.Label) {
	for _, label := range labels {
		s.labels[label] = struct{}{}
	}
}

// DeleteLabelsInFrame removes labels. Removing an absent label is a no-op.
func (s *LabelSet) DeleteLabelsInFrame(labels ...schema.Label) {
	for _, label := range labels {
		delete(s.labels, label)
	}
}

// ClearLabelsInFrame empties the set.
func (s *LabelSet) ClearLabelsInFrame() {
	clear(s.labels)
}

// GetLabelsInFrame returns the labels in sorted order.
func (s *LabelSet) GetLabelsInFrame() []schema.Label {
	out := make([]schema.Label, 0, len(s.labels))
	for label := range s.labels {
		out = append(out, label)
	}
	slices.SortFunc(out, compareLabels)
	return out
}

// Has reports membership.
func (s *LabelSet) Has(label schema.Label) bool {
	_, ok := s.labels[label]
	return ok
}

// Len reports the set size.
func (s *LabelSet) Len() int {
	return len(s.labels)
}

// shorter labels first, then lexical
func compareLabels(a, b schema.Label) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
