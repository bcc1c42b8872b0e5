package core

import (
	"context"

	"pkt.systems/hintx/schema"
)

// Service is the transport-agnostic API of the background label owner.
type Service interface {
	InitStack(ctx context.Context, sender schema.Sender) error
	InitTabHintsStack(ctx context.Context, sender schema.Sender) error
	ClaimHints(ctx context.Context, sender schema.Sender, amount int) ([]schema.Label, error)
	RequestHintsProvision(ctx context.Context, sender schema.Sender, amount int) (schema.HintsProvision, error)
	ReleaseHints(ctx context.Context, sender schema.Sender, labels []schema.Label) error
	ReleaseOrphanHints(ctx context.Context, sender schema.Sender, active []schema.Label) error
	ClaimHintText(ctx context.Context, sender schema.Sender) (schema.HintTextResult, error)
	ReleaseHintText(ctx context.Context, sender schema.Sender, label schema.Label) error
	ClearFrameHints(ctx context.Context, sender schema.Sender) error
	CloseTab(ctx context.Context, tabID schema.TabID) error
	ActivateTab(ctx context.Context, windowID schema.WindowID, tabID schema.TabID) error
	RemoveTab(ctx context.Context, windowID schema.WindowID, tabID schema.TabID) error
	PreviousTab(ctx context.Context, windowID schema.WindowID) (schema.TabID, error)
	RecentTabs(ctx context.Context, windowID schema.WindowID) ([]schema.TabID, error)
	FocusedFrame(ctx context.Context, tabID schema.TabID) (schema.FrameID, error)
	CurrentTabState(ctx context.Context, tabID schema.TabID) (schema.TabState, error)
	Dispatch(ctx context.Context, sender schema.Sender, msg schema.Message) (any, error)
}

// TabIdentifier reports the tab the user is currently looking at.
type TabIdentifier interface {
	CurrentTabID(ctx context.Context, windowID schema.WindowID) (schema.TabID, error)
}

// FocusChecker asks a single frame whether it holds keyboard focus.
type FocusChecker interface {
	HasFocus(ctx context.Context, tabID schema.TabID, frameID schema.FrameID) (bool, error)
}
