package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/hintx/internal/logx"
	"pkt.systems/hintx/schema"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq       uint64             `json:"seq"`
	Type      string             `json:"type"`
	Label     *schema.LabelEvent `json:"label,omitempty"`
	State     *schema.TabState   `json:"state,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Hub broadcasts label events per tab and keeps a bounded history for replay.
type Hub struct {
	mu          sync.Mutex
	tabs        map[schema.TabID]*tabHub
	historySize int
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = 256
	}
	return &Hub{
		tabs:        make(map[schema.TabID]*tabHub),
		historySize: historySize,
	}
}

// OnLabelEvent implements core.EventSink.
func (h *Hub) OnLabelEvent(event schema.LabelEvent) {
	log := logx.WithTab(context.Background(), event.TabID)
	log.Trace("hub label event", "type", event.Type, "frame", event.FrameID)
	h.publish(event.TabID, StreamEvent{
		Type:      "label",
		Label:     &event,
		Timestamp: time.Now(),
	})
	if event.Type == schema.LabelEventDisposed {
		h.forgetIfIdle(event.TabID)
	}
}

// Subscribe registers a subscriber for a tab. It returns the history so far so
// callers can replay without missing events published in between.
func (h *Hub) Subscribe(tabID schema.TabID) (<-chan StreamEvent, func(), []StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	th := h.getOrCreateTabHubLocked(tabID)
	ch := make(chan StreamEvent, 256)
	th.subs[ch] = struct{}{}
	history := append([]StreamEvent(nil), th.history...)
	log := logx.WithTab(context.Background(), tabID)
	log.Debug("hub subscribe", "subs", len(th.subs), "history", len(history))
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(th.subs, ch)
			close(ch)
			remaining := len(th.subs)
			h.mu.Unlock()
			log.Debug("hub unsubscribe", "subs", remaining)
		})
	}
	return ch, unsub, history
}

// Replay returns events after the provided seq.
func (h *Hub) Replay(tabID schema.TabID, after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	th := h.tabs[tabID]
	if th == nil {
		return nil
	}
	events := make([]StreamEvent, 0, len(th.history))
	for _, event := range th.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	logx.WithTab(context.Background(), tabID).Debug("hub replay", "after", after, "count", len(events))
	return events
}

func (h *Hub) publish(tabID schema.TabID, event StreamEvent) {
	h.mu.Lock()
	th := h.getOrCreateTabHubLocked(tabID)
	th.seq++
	event.Seq = th.seq
	th.history = append(th.history, event)
	if len(th.history) > h.historySize {
		th.history = th.history[len(th.history)-h.historySize:]
	}
	dropped := 0
	for sub := range th.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.mu.Unlock()

	if dropped > 0 {
		logx.WithTab(context.Background(), tabID).Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}

// forgetIfIdle drops a disposed tab's history once nobody listens to it.
func (h *Hub) forgetIfIdle(tabID schema.TabID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if th := h.tabs[tabID]; th != nil && len(th.subs) == 0 {
		delete(h.tabs, tabID)
	}
}

func (h *Hub) getOrCreateTabHubLocked(tabID schema.TabID) *tabHub {
	th := h.tabs[tabID]
	if th == nil {
		th = &tabHub{
			subs: make(map[chan StreamEvent]struct{}),
		}
		h.tabs[tabID] = th
	}
	return th
}

type tabHub struct {
	seq     uint64
	history []StreamEvent
	subs    map[chan StreamEvent]struct{}
}
