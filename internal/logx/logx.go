package logx

import (
	"context"

	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	tabKey contextKey = iota
	frameKey
	windowKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithTab annotates the logger with the tab id unless the context already carries it.
func WithTab(ctx context.Context, tabID schema.TabID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if current, ok := ctx.Value(tabKey).(schema.TabID); ok && current == tabID {
		return log
	}
	return log.With("tab", tabID)
}

// WithSender annotates the logger with the sender's tab and frame.
func WithSender(ctx context.Context, sender schema.Sender) pslog.Logger {
	log := WithTab(ctx, sender.TabID)
	if current, ok := ctx.Value(frameKey).(schema.FrameID); ok && current == sender.FrameID {
		return log
	}
	return log.With("frame", sender.FrameID)
}

// WithWindow annotates the logger with the window id.
func WithWindow(ctx context.Context, windowID schema.WindowID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if current, ok := ctx.Value(windowKey).(schema.WindowID); ok && current == windowID {
		return log
	}
	return log.With("window", windowID)
}

// WithWindowTab annotates the logger with window and tab identifiers.
func WithWindowTab(ctx context.Context, windowID schema.WindowID, tabID schema.TabID) pslog.Logger {
	log := WithWindow(ctx, windowID)
	if current, ok := ctx.Value(tabKey).(schema.TabID); ok && current == tabID {
		return log
	}
	return log.With("tab", tabID)
}

// ContextWithSender stores tab/frame markers on the context for log de-duplication.
func ContextWithSender(ctx context.Context, sender schema.Sender) context.Context {
	if ctx == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, tabKey, sender.TabID)
	return context.WithValue(ctx, frameKey, sender.FrameID)
}

// ContextWithSenderLogger attaches the logger and sender markers to the context.
func ContextWithSenderLogger(ctx context.Context, log pslog.Logger, sender schema.Sender) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithSender(ctx, sender)
}

// ContextWithWindow stores the window marker on the context.
func ContextWithWindow(ctx context.Context, windowID schema.WindowID) context.Context {
	if ctx == nil {
		return ctx
	}
	return context.WithValue(ctx, windowKey, windowID)
}

// WithLabels annotates the logger with a label count and, at low volume, the labels.
func WithLabels(log pslog.Logger, labels []schema.Label) pslog.Logger {
	log = log.With("count", len(labels))
	if len(labels) > 0 && len(labels) <= 8 {
		log = log.With("labels", labels)
	}
	return log
}

// CopyContextFields copies tab/frame/window markers from src to dst.
func CopyContextFields(dst context.Context, src context.Context) context.Context {
	if src == nil {
		return dst
	}
	if tab, ok := src.Value(tabKey).(schema.TabID); ok {
		dst = context.WithValue(dst, tabKey, tab)
	}
	if frame, ok := src.Value(frameKey).(schema.FrameID); ok {
		dst = context.WithValue(dst, frameKey, frame)
	}
	if window, ok := src.Value(windowKey).(schema.WindowID); ok {
		dst = context.WithValue(dst, windowKey, window)
	}
	return dst
}
