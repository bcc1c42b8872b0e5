// Package metrics exposes label lifecycle counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pkt.systems/hintx/schema"
)

// Metrics records label lifecycle activity. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	claimed    prometheus.Counter
	released   *prometheus.CounterVec
	exhausted  prometheus.Counter
	provisions prometheus.Counter
	assigned   prometheus.Gauge
	tabs       prometheus.Gauge
	requests   *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		claimed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hintx",
			Name:      "labels_claimed_total",
			Help:      "Labels handed out to frames.",
		}),
		released: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hintx",
			Name:      "labels_released_total",
			Help:      "Labels returned to a pool, by how they were released.",
		}, []string{"kind"}),
		exhausted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hintx",
			Name:      "claims_underfilled_total",
			Help:      "Claims that returned fewer labels than requested.",
		}),
		provisions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hintx",
			Name:      "provision_requests_total",
			Help:      "Low-water provision requests raised by pools.",
		}),
		assigned: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hintx",
			Name:      "labels_assigned",
			Help:      "Labels currently assigned to frames across all tabs.",
		}),
		tabs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hintx",
			Name:      "tabs",
			Help:      "Tabs with live label state.",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hintx",
			Name:      "requests_total",
			Help:      "Dispatched frame requests by action and outcome.",
		}, []string{"action", "outcome"}),
	}
}

// Claimed records labels handed out.
func (m *Metrics) Claimed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.claimed.Add(float64(n))
	m.assigned.Add(float64(n))
}

// Released records labels returned to a pool. kind is "explicit", "orphan",
// "frame" or "reset".
func (m *Metrics) Released(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.released.WithLabelValues(kind).Add(float64(n))
	m.assigned.Sub(float64(n))
}

// Tabs sets the number of tabs with label state.
func (m *Metrics) Tabs(n int) {
	if m == nil {
		return
	}
	m.tabs.Set(float64(n))
}

// Request records a dispatched request.
func (m *Metrics) Request(action schema.ActionName, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if !knownAction(action) {
		action = "unknown"
	}
	m.requests.WithLabelValues(string(action), outcome).Inc()
}

// OnLabelEvent implements core.EventSink.
func (m *Metrics) OnLabelEvent(event schema.LabelEvent) {
	if m == nil {
		return
	}
	switch event.Type {
	case schema.LabelEventExhausted:
		m.exhausted.Inc()
	case schema.LabelEventProvision:
		m.provisions.Inc()
	}
}

func knownAction(action schema.ActionName) bool {
	switch action {
	case schema.ActionInitStack, schema.ActionInitTabHintsStack,
		schema.ActionClaimHints, schema.ActionRequestHintsProvision,
		schema.ActionReleaseHints, schema.ActionReleaseOrphanHints,
		schema.ActionClaimHintText, schema.ActionReleaseHintText,
		schema.ActionClearFrameHints:
		return true
	}
	return false
}
