package hintx

import (
	"pkt.systems/hintx/core"
	"pkt.systems/hintx/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnLabelEvent(event schema.LabelEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnLabelEvent(event)
	}
}
