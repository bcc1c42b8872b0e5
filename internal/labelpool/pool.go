// Package labelpool holds the per-tab stack of unassigned hint labels.
package labelpool

import (
	"context"
	"slices"

	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

// ProvisionFunc is invoked when the pool asks for a fresh provision.
type ProvisionFunc func(size int)

// Options tunes pool behavior.
type Options struct {
	// LowWaterMark is the size below which Pop requests a provision.
	LowWaterMark int
	// OnLow is called by RequestProvision. It must not call back into the pool.
	OnLow  ProvisionFunc
	Logger pslog.Logger
}

// Pool is an ordered stack of unassigned labels drawn from a fixed alphabet.
// Pop always yields the lowest ranked available label, so released labels are
// reused before longer ones. Pool is not safe for concurrent use; its owner
// serializes access.
type Pool struct {
	alphabet      []schema.Label
	rank          map[schema.Label]int
	stack         []schema.Label
	present       map[schema.Label]struct{}
	initialAmount int
	lowWater      int
	armed         bool
	onLow         ProvisionFunc
	log           pslog.Logger
}

// New constructs a pool seeded with the full alphabet. The alphabet must be
// free of duplicates (see schema.NormalizeAlphabet).
func New(alphabet []schema.Label, opts Options) *Pool {
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	rank := make(map[schema.Label]int, len(alphabet))
	for i, label := range alphabet {
		rank[label] = i
	}
	p := &Pool{
		alphabet: slices.Clone(alphabet),
		rank:     rank,
		lowWater: opts.LowWaterMark,
		onLow:    opts.OnLow,
		log:      logger,
	}
	p.Initialize()
	return p
}

// Initialize resets the pool to the full alphabet.
func (p *Pool) Initialize() {
	p.stack = make([]schema.Label, 0, len(p.alphabet))
	for i := len(p.alphabet) - 1; i >= 0; i-- {
		p.stack = append(p.stack, p.alphabet[i])
	}
	p.present = make(map[schema.Label]struct{}, len(p.alphabet))
	for _, label := range p.alphabet {
		p.present[label] = struct{}{}
	}
	p.initialAmount = len(p.stack)
	p.armed = true
	p.log.Trace("pool initialize", "size", len(p.stack))
}

// Pop removes and returns the front label. It reports false when the pool is
// exhausted; callers should request a provision later rather than fail.
func (p *Pool) Pop() (schema.Label, bool) {
	n := len(p.stack)
	if n == 0 {
		p.log.Debug("pool exhausted")
		return "", false
	}
	label := p.stack[n-1]
	p.stack = p.stack[:n-1]
	delete(p.present, label)
	if p.armed && len(p.stack) < p.lowWater {
		p.armed = false
		p.RequestProvision()
	}
	return label, true
}

// Take pops up to n labels. It returns fewer when the pool runs dry.
func (p *Pool) Take(n int) []schema.Label {
	if n <= 0 {
		return nil
	}
	out := make([]schema.Label, 0, min(n, len(p.stack)))
	for len(out) < n {
		label, ok := p.Pop()
		if !ok {
			break
		}
		out = append(out, label)
	}
	return out
}

// Push returns labels to the pool and reports the new size. Labels already in
// the pool and labels foreign to the alphabet are dropped.
func (p *Pool) Push(labels ...schema.Label) int {
	for _, label := range labels {
		rank, ok := p.rank[label]
		if !ok {
			p.log.Warn("pool push rejected", "label", label, "reason", "not in alphabet")
			continue
		}
		if _, ok := p.present[label]; ok {
			p.log.Debug("pool push duplicate", "label", label)
			continue
		}
		idx, _ := slices.BinarySearchFunc(p.stack, rank, func(e schema.Label, target int) int {
			return target - p.rank[e]
		})
		p.stack = slices.Insert(p.stack, idx, label)
		p.present[label] = struct{}{}
	}
	if !p.armed && len(p.stack) >= p.lowWater {
		p.armed = true
	}
	return len(p.stack)
}

// RequestProvision signals the owner that the tab should be issued a fresh
// batch. It does not mutate the pool.
func (p *Pool) RequestProvision() {
	p.log.Debug("pool provision requested", "size", len(p.stack), "low_water", p.lowWater)
	if p.onLow != nil {
		p.onLow(len(p.stack))
	}
}

// Size reports the number of available labels.
func (p *Pool) Size() int {
	return len(p.stack)
}

// InitialAmount reports the size the pool was seeded with.
func (p *Pool) InitialAmount() int {
	return p.initialAmount
}

// Contains reports whether label is currently available.
func (p *Pool) Contains(label schema.Label) bool {
	_, ok := p.present[label]
	return ok
}

// InAlphabet reports whether label belongs to the pool's alphabet.
func (p *Pool) InAlphabet(label schema.Label) bool {
	_, ok := p.rank[label]
	return ok
}

// Labels returns the available labels in pop order.
func (p *Pool) Labels() []schema.Label {
	out := make([]schema.Label, 0, len(p.stack))
	for i := len(p.stack) - 1; i >= 0; i-- {
		out = append(out, p.stack[i])
	}
	return out
}

// Alphabet returns the labels the pool was built from.
func (p *Pool) Alphabet() []schema.Label {
	return slices.Clone(p.alphabet)
}
