// Package visibility defers listener work until the host reports the
// document as visible.
package visibility

import "sync"

// State is the host-reported document visibility.
type State string

const (
	// Visible means the document is on screen.
	Visible State = "visible"
	// Hidden means the document is in a background tab or minimized.
	Hidden State = "hidden"
)

// Gate holds at most one pending invocation per listener key while hidden.
type Gate struct {
	mu      sync.Mutex
	state   State
	pending map[string]func()
	order   []string
}

// NewGate constructs a gate in the given state.
func NewGate(initial State) *Gate {
	return &Gate{state: initial, pending: make(map[string]func())}
}

// Defer runs fn now when visible and reports true. Otherwise fn is stored
// under key, replacing any earlier pending call for the same key.
func (g *Gate) Defer(key string, fn func()) bool {
	g.mu.Lock()
	if g.state == Visible {
		g.mu.Unlock()
		fn()
		return true
	}
	if _, ok := g.pending[key]; !ok {
		g.order = append(g.order, key)
	}
	g.pending[key] = fn
	g.mu.Unlock()
	return false
}

// SetState records the visibility and flushes pending calls, in first
// registration order, when the document becomes visible.
func (g *Gate) SetState(state State) {
	g.mu.Lock()
	g.state = state
	if state != Visible || len(g.order) == 0 {
		g.mu.Unlock()
		return
	}
	calls := make([]func(), 0, len(g.order))
	for _, key := range g.order {
		calls = append(calls, g.pending[key])
	}
	g.pending = make(map[string]func())
	g.order = nil
	g.mu.Unlock()
	for _, call := range calls {
		call()
	}
}

// State returns the current visibility.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Pending reports how many listeners wait for visibility.
func (g *Gate) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}
