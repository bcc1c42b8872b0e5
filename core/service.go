package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"pkt.systems/hintx/internal/broadcast"
	"pkt.systems/hintx/internal/logx"
	"pkt.systems/hintx/internal/metrics"
	"pkt.systems/hintx/internal/persist"
	"pkt.systems/hintx/internal/recency"
	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

// service implements the core service behavior. Every mutation of label
// state happens with mu held, so requests from all frames observe one
// serial order.
type service struct {
	cfg     schema.ServiceConfig
	sink    EventSink
	recency *recency.Tracker
	tabs    TabIdentifier
	focus   FocusChecker
	metrics *metrics.Metrics
	logger  pslog.Logger
	mu      sync.Mutex
	states  map[schema.TabID]*tabState
}

// NewService constructs the core service implementation.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	store := deps.RecencyStore
	if store == nil {
		store = persist.NewMemory()
	}
	return &service{
		cfg:     normalized,
		sink:    deps.EventSink,
		recency: recency.New(store),
		tabs:    deps.Tabs,
		focus:   deps.Focus,
		metrics: deps.Metrics,
		logger:  logger,
		states:  make(map[schema.TabID]*tabState),
	}, nil
}

func (s *service) InitStack(ctx context.Context, sender schema.Sender) error {
	if err := validateSender(ctx, sender); err != nil {
		return err
	}
	log := logx.WithSender(ctx, sender)
	s.mu.Lock()
	_, created := s.stateLocked(sender.TabID)
	tabs := len(s.states)
	s.mu.Unlock()
	s.metrics.Tabs(tabs)
	if created {
		log.Debug("service stack init", "alphabet", len(s.cfg.Alphabet))
	} else {
		log.Trace("service stack init", "existing", true)
	}
	return nil
}

func (s *service) InitTabHintsStack(ctx context.Context, sender schema.Sender) error {
	if err := validateSender(ctx, sender); err != nil {
		return err
	}
	log := logx.WithSender(ctx, sender)
	s.mu.Lock()
	state, created := s.stateLocked(sender.TabID)
	dropped := 0
	if !created {
		dropped = state.reset()
	}
	state.queue(schema.LabelEvent{Type: schema.LabelEventReset, TabID: sender.TabID, FrameID: sender.FrameID, PoolSize: state.pool.Size()})
	events := state.drain()
	tabs := len(s.states)
	s.mu.Unlock()
	s.metrics.Tabs(tabs)
	s.metrics.Released("reset", dropped)
	s.emit(events)
	log.Info("service stack reset", "dropped", dropped)
	return nil
}

func (s *service) ClaimHints(ctx context.Context, sender schema.Sender, amount int) ([]schema.Label, error) {
	labels, _, err := s.claim(ctx, sender, amount)
	return labels, err
}

func (s *service) RequestHintsProvision(ctx context.Context, sender schema.Sender, amount int) (schema.HintsProvision, error) {
	labels, initial, err := s.claim(ctx, sender, amount)
	if err != nil {
		return schema.HintsProvision{}, err
	}
	return schema.HintsProvision{Hints: labels, InitialAmount: initial}, nil
}

// claim assigns up to amount labels to the sender frame and reports the
// tab pool's initial amount as of the same critical section.
func (s *service) claim(ctx context.Context, sender schema.Sender, amount int) ([]schema.Label, int, error) {
	if err := validateSender(ctx, sender); err != nil {
		return nil, 0, err
	}
	log := logx.WithSender(ctx, sender)
	s.mu.Lock()
	if amount <= 0 {
		initial := 0
		if state := s.states[sender.TabID]; state != nil {
			initial = state.pool.InitialAmount()
		}
		s.mu.Unlock()
		return []schema.Label{}, initial, nil
	}
	state, _ := s.stateLocked(sender.TabID)
	initial := state.pool.InitialAmount()
	labels := state.pool.Take(amount)
	if rejected := state.frames.Assign(sender.FrameID, labels); len(rejected) > 0 {
		// A pooled label should never be owned; keep it out of both sides.
		log.Error("service claim inconsistent", "rejected", rejected)
		labels = slices.DeleteFunc(labels, func(label schema.Label) bool {
			return slices.Contains(rejected, label)
		})
	}
	poolSize := state.pool.Size()
	if len(labels) < amount {
		state.queue(schema.LabelEvent{Type: schema.LabelEventExhausted, TabID: sender.TabID, FrameID: sender.FrameID, PoolSize: poolSize})
	}
	events := state.drain()
	s.mu.Unlock()

	s.metrics.Claimed(len(labels))
	s.emit(events)
	if len(labels) < amount {
		log.Debug("service claim underfilled", "requested", amount, "granted", len(labels))
	}
	logx.WithLabels(log, labels).Trace("service hints claimed", "pool_size", poolSize)
	if labels == nil {
		labels = []schema.Label{}
	}
	return labels, initial, nil
}

func (s *service) ReleaseHints(ctx context.Context, sender schema.Sender, labels []schema.Label) error {
	if err := validateSender(ctx, sender); err != nil {
		return err
	}
	return s.release(ctx, sender, false, func(*tabState) []schema.Label {
		return labels
	})
}

func (s *service) ReleaseOrphanHints(ctx context.Context, sender schema.Sender, active []schema.Label) error {
	if err := validateSender(ctx, sender); err != nil {
		return err
	}
	return s.release(ctx, sender, true, func(state *tabState) []schema.Label {
		return state.frames.Orphans(sender.FrameID, active)
	})
}

// release returns the labels chosen by pick to the pool, keeping only those
// the sender frame actually holds. pick runs with mu held.
func (s *service) release(ctx context.Context, sender schema.Sender, orphaned bool, pick func(*tabState) []schema.Label) error {
	log := logx.WithSender(ctx, sender)
	s.mu.Lock()
	state := s.states[sender.TabID]
	if state == nil {
		s.mu.Unlock()
		log.Debug("service release ignored", "reason", "no tab state")
		return nil
	}
	labels := pick(state)
	released := state.frames.Release(sender.FrameID, labels)
	poolSize := state.pool.Push(released...)
	if len(released) > 0 {
		state.queue(schema.LabelEvent{Type: schema.LabelEventReleased, TabID: sender.TabID, FrameID: sender.FrameID, Labels: released, PoolSize: poolSize, Orphaned: orphaned})
	}
	events := state.drain()
	s.mu.Unlock()

	kind := "explicit"
	if orphaned {
		kind = "orphan"
	}
	s.metrics.Released(kind, len(released))
	s.emit(events)
	if skipped := len(labels) - len(released); skipped > 0 {
		log.Debug("service release absorbed", "skipped", skipped)
	}
	if len(released) > 0 {
		logx.WithLabels(log, released).Trace("service hints released", "orphaned", orphaned, "pool_size", poolSize)
	}
	return nil
}

func (s *service) ClaimHintText(ctx context.Context, sender schema.Sender) (schema.HintTextResult, error) {
	if err := validateSender(ctx, sender); err != nil {
		return schema.HintTextResult{}, err
	}
	log := logx.WithSender(ctx, sender)
	s.mu.Lock()
	state, _ := s.stateLocked(sender.TabID)
	label, ok := state.text.Pop()
	if ok {
		if rejected := state.textFrames.Assign(sender.FrameID, []schema.Label{label}); len(rejected) > 0 {
			log.Error("service hint text inconsistent", "label", label)
			ok = false
		}
	}
	if !ok {
		state.queue(schema.LabelEvent{Type: schema.LabelEventExhausted, TabID: sender.TabID, FrameID: sender.FrameID, PoolSize: state.text.Size()})
	}
	events := state.drain()
	s.mu.Unlock()

	s.emit(events)
	if !ok {
		log.Debug("service hint text exhausted")
		return schema.HintTextResult{}, nil
	}
	s.metrics.Claimed(1)
	log.Trace("service hint text claimed", "label", label)
	return schema.HintTextResult{Label: label, OK: true}, nil
}

func (s *service) ReleaseHintText(ctx context.Context, sender schema.Sender, label schema.Label) error {
	if err := validateSender(ctx, sender); err != nil {
		return err
	}
	log := logx.WithSender(ctx, sender)
	if label == "" {
		log.Debug("service hint text release ignored", "reason", "empty label")
		return nil
	}
	s.mu.Lock()
	state := s.states[sender.TabID]
	var released []schema.Label
	if state != nil {
		released = state.textFrames.Release(sender.FrameID, []schema.Label{label})
		state.text.Push(released...)
	}
	s.mu.Unlock()
	s.metrics.Released("explicit", len(released))
	if len(released) == 0 {
		log.Debug("service hint text release absorbed", "label", label)
		return nil
	}
	log.Trace("service hint text released", "label", label)
	return nil
}

func (s *service) ClearFrameHints(ctx context.Context, sender schema.Sender) error {
	if err := validateSender(ctx, sender); err != nil {
		return err
	}
	log := logx.WithSender(ctx, sender)
	s.mu.Lock()
	state := s.states[sender.TabID]
	if state == nil {
		s.mu.Unlock()
		return nil
	}
	labels := state.frames.ClearFrame(sender.FrameID)
	poolSize := state.pool.Push(labels...)
	texts := state.textFrames.ClearFrame(sender.FrameID)
	state.text.Push(texts...)
	if len(labels) > 0 {
		state.queue(schema.LabelEvent{Type: schema.LabelEventReleased, TabID: sender.TabID, FrameID: sender.FrameID, Labels: labels, PoolSize: poolSize})
	}
	events := state.drain()
	s.mu.Unlock()

	s.metrics.Released("frame", len(labels)+len(texts))
	s.emit(events)
	log.Debug("service frame cleared", "hints", len(labels), "texts", len(texts))
	return nil
}

func (s *service) CloseTab(ctx context.Context, tabID schema.TabID) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	s.dispose(ctx, tabID)
	if err := s.recency.RemoveTab(ctx, tabID); err != nil {
		logx.WithTab(ctx, tabID).Warn("service tab close failed", "err", err)
		return err
	}
	return nil
}

// dispose drops the tab's label state, if any.
func (s *service) dispose(ctx context.Context, tabID schema.TabID) {
	s.mu.Lock()
	state := s.states[tabID]
	if state == nil {
		s.mu.Unlock()
		return
	}
	dropped := state.assigned()
	delete(s.states, tabID)
	tabs := len(s.states)
	s.mu.Unlock()

	s.metrics.Tabs(tabs)
	s.metrics.Released("reset", dropped)
	s.emit([]schema.LabelEvent{{Type: schema.LabelEventDisposed, TabID: tabID}})
	logx.WithTab(ctx, tabID).Info("service tab disposed", "dropped", dropped)
}

func (s *service) ActivateTab(ctx context.Context, windowID schema.WindowID, tabID schema.TabID) error {
	if err := validateWindowTab(ctx, windowID, tabID); err != nil {
		return err
	}
	if err := s.recency.UpdateRecentTab(ctx, windowID, tabID, false); err != nil {
		logx.WithWindowTab(ctx, windowID, tabID).Warn("service tab activate failed", "err", err)
		return err
	}
	return nil
}

func (s *service) RemoveTab(ctx context.Context, windowID schema.WindowID, tabID schema.TabID) error {
	if err := validateWindowTab(ctx, windowID, tabID); err != nil {
		return err
	}
	s.dispose(ctx, tabID)
	if err := s.recency.UpdateRecentTab(ctx, windowID, tabID, true); err != nil {
		logx.WithWindowTab(ctx, windowID, tabID).Warn("service tab remove failed", "err", err)
		return err
	}
	return nil
}

func (s *service) PreviousTab(ctx context.Context, windowID schema.WindowID) (schema.TabID, error) {
	if ctx == nil {
		return 0, errors.New("missing context")
	}
	if windowID < 0 {
		return 0, schema.ErrInvalidWindow
	}
	if s.tabs == nil {
		return s.recency.Previous(ctx, windowID)
	}
	current, err := s.tabs.CurrentTabID(ctx, windowID)
	if err != nil {
		logx.WithWindow(ctx, windowID).Debug("service current tab unknown", "err", err)
		return s.recency.Previous(ctx, windowID)
	}
	list, err := s.recency.Recent(ctx, windowID)
	if err != nil {
		return 0, err
	}
	for i := len(list) - 1; i >= 0; i-- {
		if list[i] != current {
			return list[i], nil
		}
	}
	return 0, schema.ErrNoPreviousTab
}

func (s *service) RecentTabs(ctx context.Context, windowID schema.WindowID) ([]schema.TabID, error) {
	if ctx == nil {
		return nil, errors.New("missing context")
	}
	if windowID < 0 {
		return nil, schema.ErrInvalidWindow
	}
	return s.recency.Recent(ctx, windowID)
}

func (s *service) FocusedFrame(ctx context.Context, tabID schema.TabID) (schema.FrameID, error) {
	if ctx == nil {
		return 0, errors.New("missing context")
	}
	if tabID < 0 {
		return 0, schema.ErrInvalidTab
	}
	if s.focus == nil {
		return 0, schema.ErrActionUnavailable
	}
	s.mu.Lock()
	frames := []schema.FrameID{schema.TopFrame}
	if state := s.states[tabID]; state != nil {
		for _, frame := range state.frames.Frames() {
			if frame != schema.TopFrame {
				frames = append(frames, frame)
			}
		}
	}
	s.mu.Unlock()

	frame, err := broadcast.FirstSuccess(ctx, frames, func(ctx context.Context, frame schema.FrameID) (schema.FrameID, error) {
		ok, err := s.focus.HasFocus(ctx, tabID, frame)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("frame %d not focused", frame)
		}
		return frame, nil
	})
	if err != nil {
		logx.WithTab(ctx, tabID).Debug("service focus unknown", "frames", len(frames), "err", err)
		return 0, fmt.Errorf("%w: %w", schema.ErrActionUnavailable, err)
	}
	return frame, nil
}

func (s *service) CurrentTabState(ctx context.Context, tabID schema.TabID) (schema.TabState, error) {
	if ctx == nil {
		return schema.TabState{}, errors.New("missing context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.states[tabID]
	if state == nil {
		return schema.TabState{}, schema.ErrTabNotFound
	}
	return state.snapshot(), nil
}

// stateLocked returns the tab's state, creating it on first use.
func (s *service) stateLocked(tabID schema.TabID) (*tabState, bool) {
	if state := s.states[tabID]; state != nil {
		return state, false
	}
	state := newTabState(tabID, s.cfg, s.logger.With("tab", tabID))
	s.states[tabID] = state
	return state, true
}

func (s *service) emit(events []schema.LabelEvent) {
	if s.sink == nil {
		return
	}
	for _, event := range events {
		s.sink.OnLabelEvent(event)
	}
}

func validateSender(ctx context.Context, sender schema.Sender) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	if sender.TabID < 0 {
		return schema.ErrInvalidTab
	}
	if sender.FrameID < 0 {
		return fmt.Errorf("%w: frame id %d", schema.ErrInvalidRequest, sender.FrameID)
	}
	return nil
}

func validateWindowTab(ctx context.Context, windowID schema.WindowID, tabID schema.TabID) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	if windowID < 0 {
		return schema.ErrInvalidWindow
	}
	if tabID < 0 {
		return schema.ErrInvalidTab
	}
	return nil
}
