package core

import (
	"pkt.systems/hintx/internal/framereg"
	"pkt.systems/hintx/internal/labelpool"
	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

// tabState owns one tab's label space: the hint pool, the hint-text pool and
// the frame registries for each. It is only touched with service.mu held.
type tabState struct {
	id         schema.TabID
	pool       *labelpool.Pool
	frames     *framereg.Registry
	text       *labelpool.Pool
	textFrames *framereg.Registry
	pending    []schema.LabelEvent
}

func newTabState(id schema.TabID, cfg schema.ServiceConfig, log pslog.Logger) *tabState {
	state := &tabState{id: id}
	state.pool = labelpool.New(cfg.Alphabet, labelpool.Options{
		LowWaterMark: cfg.LowWaterMark,
		OnLow:        state.onLow,
		Logger:       log,
	})
	state.frames = framereg.NewRegistry(log)
	state.text = labelpool.New(cfg.TextAlphabet, labelpool.Options{Logger: log})
	state.textFrames = framereg.NewRegistry(log)
	return state
}

func (t *tabState) onLow(size int) {
	t.queue(schema.LabelEvent{Type: schema.LabelEventProvision, TabID: t.id, FrameID: schema.TopFrame, PoolSize: size})
}

func (t *tabState) queue(event schema.LabelEvent) {
	t.pending = append(t.pending, event)
}

// drain hands the queued events to the caller for delivery outside the lock.
func (t *tabState) drain() []schema.LabelEvent {
	events := t.pending
	t.pending = nil
	return events
}

// assigned reports labels held by frames across both pools.
func (t *tabState) assigned() int {
	return t.frames.Len() + t.textFrames.Len()
}

// reset returns the tab to a freshly initialized state and reports how many
// assignments were dropped.
func (t *tabState) reset() int {
	dropped := t.assigned()
	t.frames.Reset()
	t.textFrames.Reset()
	t.pool.Initialize()
	t.text.Initialize()
	return dropped
}

// snapshot must be called with service.mu held.
func (t *tabState) snapshot() schema.TabState {
	return schema.TabState{
		TabID:         t.id,
		PoolSize:      t.pool.Size(),
		InitialAmount: t.pool.InitialAmount(),
		Frames:        t.frames.Snapshot(),
		TextPoolSize:  t.text.Size(),
		TextFrames:    t.textFrames.Snapshot(),
	}
}
