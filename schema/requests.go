package schema

// MessageTypeRequest is the only message type content frames send.
const MessageTypeRequest = "request"

// ActionName names a request handled by the background owner.
type ActionName string

const (
	// ActionInitStack ensures the tab's label pool exists.
	ActionInitStack ActionName = "initStack"
	// ActionInitTabHintsStack resets the tab's label pool and frame registries.
	ActionInitTabHintsStack ActionName = "initTabHintsStack"
	// ActionClaimHints claims up to Amount labels for the sender frame.
	ActionClaimHints ActionName = "claimHints"
	// ActionReleaseHints returns Hints to the pool.
	ActionReleaseHints ActionName = "releaseHints"
	// ActionReleaseOrphanHints releases every label the frame holds that is not in Hints.
	ActionReleaseOrphanHints ActionName = "releaseOrphanHints"
	// ActionClaimHintText claims a single hint-text label.
	ActionClaimHintText ActionName = "claimHintText"
	// ActionReleaseHintText releases the hint-text label in Target.
	ActionReleaseHintText ActionName = "releaseHintText"
	// ActionRequestHintsProvision claims labels and reports the pool's initial amount.
	ActionRequestHintsProvision ActionName = "requestHintsProvision"
	// ActionClearFrameHints releases everything the sender frame holds.
	ActionClearFrameHints ActionName = "clearFrameHints"
)

// Message is the envelope content frames send to the background owner.
type Message struct {
	Type   string `json:"type"`
	Action Action `json:"action"`
}

// Action is the tagged union of request payloads, keyed by Type.
type Action struct {
	Type   ActionName `json:"type"`
	Amount int        `json:"amount,omitempty"`
	Hints  []Label    `json:"hints,omitempty"`
	Target Label      `json:"target,omitempty"`
}

// NewRequest wraps an action in a request message.
func NewRequest(action Action) Message {
	return Message{Type: MessageTypeRequest, Action: action}
}

// HintsProvision describes a freshly granted batch of labels.
type HintsProvision struct {
	Hints         []Label `json:"hints"`
	InitialAmount int     `json:"initialAmount"`
}

// HintTextResult reports the outcome of claimHintText.
type HintTextResult struct {
	Label Label `json:"label,omitempty"`
	OK    bool  `json:"ok"`
}

// TabEventType identifies a browser tab event fed to the recency tracker.
type TabEventType string

const (
	// TabActivated reports a tab became the active tab of its window.
	TabActivated TabEventType = "activated"
	// TabRemoved reports a tab was closed.
	TabRemoved TabEventType = "removed"
)

// TabEventRequest is a browser tab event.
type TabEventRequest struct {
	Type     TabEventType `json:"type"`
	WindowID WindowID     `json:"window_id"`
	TabID    TabID        `json:"tab_id"`
}

// TabState is a diagnostic snapshot of one tab's label state.
type TabState struct {
	TabID         TabID               `json:"tab_id"`
	PoolSize      int                 `json:"pool_size"`
	InitialAmount int                 `json:"initial_amount"`
	Frames        map[FrameID][]Label `json:"frames"`
	TextPoolSize  int                 `json:"text_pool_size"`
	TextFrames    map[FrameID][]Label `json:"text_frames"`
}

// HTTP headers carrying the sender of a request.
const (
	HeaderTab    = "X-Hintx-Tab"
	HeaderFrame  = "X-Hintx-Frame"
	HeaderClient = "X-Hintx-Client"
)

// RequestResponse is the HTTP envelope around a dispatched request.
type RequestResponse struct {
	Result any    `json:"result"`
	Error  string `json:"error,omitempty"`
}
