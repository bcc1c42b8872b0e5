package core

import "pkt.systems/hintx/schema"

// EventSink receives label lifecycle events from the core service. Events are
// delivered after the service lock is released.
type EventSink interface {
	OnLabelEvent(event schema.LabelEvent)
}
