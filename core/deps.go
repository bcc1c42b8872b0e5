package core

import (
	"pkt.systems/hintx/internal/metrics"
	"pkt.systems/hintx/internal/recency"
	"pkt.systems/pslog"
)

// ServiceDeps captures optional dependencies for the core service.
type ServiceDeps struct {
	EventSink EventSink
	// RecencyStore backs the tab recency lists. An in-memory store is used
	// when nil.
	RecencyStore recency.Store
	Tabs         TabIdentifier
	Focus        FocusChecker
	Metrics      *metrics.Metrics
	Logger       pslog.Logger
}
