package eventbus

import (
	"context"
	"sync"

	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

// Bus fans label events out to per-tab subscribers in process.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.TabID]map[chan schema.LabelEvent]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[schema.TabID]map[chan schema.LabelEvent]struct{}),
		log:   logger,
		depth: 64,
	}
}

// Subscribe registers a subscriber for the tab and returns a channel + cancel.
func (b *Bus) Subscribe(tabID schema.TabID) (<-chan schema.LabelEvent, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan schema.LabelEvent, b.depth)
	b.mu.Lock()
	tabSubs := b.subs[tabID]
	if tabSubs == nil {
		tabSubs = make(map[chan schema.LabelEvent]struct{})
		b.subs[tabID] = tabSubs
	}
	tabSubs[ch] = struct{}{}
	count := len(tabSubs)
	b.mu.Unlock()
	b.log.With("tab", tabID).Debug("eventbus subscribe", "subs", count)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if subs := b.subs[tabID]; subs != nil {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, tabID)
				}
			}
			b.mu.Unlock()
			close(ch)
			b.log.With("tab", tabID).Debug("eventbus unsubscribe")
		})
	}
}

// OnLabelEvent publishes a label event to the tab's subscribers without blocking.
func (b *Bus) OnLabelEvent(event schema.LabelEvent) {
	if b == nil {
		return
	}
	b.mu.Lock()
	tabSubs := b.subs[event.TabID]
	subs := make([]chan schema.LabelEvent, 0, len(tabSubs))
	for sub := range tabSubs {
		subs = append(subs, sub)
	}
	// Sends happen under the lock so a concurrent unsubscribe cannot close a
	// channel mid-send; the select never blocks.
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	b.mu.Unlock()
	if dropped > 0 {
		b.log.With("tab", event.TabID).Trace("eventbus dropped", "type", event.Type, "count", dropped)
	}
}
