package schema

// LabelEventType identifies a label lifecycle event.
type LabelEventType string

const (
	// LabelEventProvision asks the tab's frames to request a fresh batch.
	LabelEventProvision LabelEventType = "provision"
	// LabelEventExhausted reports a claim that could not be fully served.
	LabelEventExhausted LabelEventType = "exhausted"
	// LabelEventReset reports the tab's pools were reinitialized.
	LabelEventReset LabelEventType = "reset"
	// LabelEventReleased reports labels returned to the pool.
	LabelEventReleased LabelEventType = "released"
	// LabelEventDisposed reports the tab's label state was dropped.
	LabelEventDisposed LabelEventType = "disposed"
)

// LabelEvent describes a change in a tab's label space.
type LabelEvent struct {
	Type     LabelEventType `json:"type"`
	TabID    TabID          `json:"tab_id"`
	FrameID  FrameID        `json:"frame_id"`
	Labels   []Label        `json:"labels,omitempty"`
	PoolSize int            `json:"pool_size"`
	Orphaned bool           `json:"orphaned,omitempty"`
}
