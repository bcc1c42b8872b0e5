// Package recency keeps per-window tab lists ordered by last activation.
package recency

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"pkt.systems/hintx/internal/logx"
	"pkt.systems/hintx/schema"
)

// Store loads and saves the persisted recency lists. The tracker assumes a
// load followed by a save is only safe inside its own lock.
type Store interface {
	LoadTabsByRecency() (map[schema.WindowID][]schema.TabID, error)
	SaveTabsByRecency(map[schema.WindowID][]schema.TabID) error
}

// Tracker serializes every update behind one lock. Tab events are rare, so a
// single lock across windows is enough.
type Tracker struct {
	mu    sync.Mutex
	store Store
}

// New constructs a tracker over store.
func New(store Store) *Tracker {
	return &Tracker{store: store}
}

// UpdateRecentTab moves tabID to the most recent position of windowID, or
// drops it when removal is set.
func (t *Tracker) UpdateRecentTab(ctx context.Context, windowID schema.WindowID, tabID schema.TabID, removal bool) error {
	log := logx.WithWindowTab(ctx, windowID, tabID)
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	lists, err := t.store.LoadTabsByRecency()
	if err != nil {
		log.Warn("recency load failed", "err", err)
		return fmt.Errorf("load recency: %w", err)
	}
	list := slices.DeleteFunc(slices.Clone(lists[windowID]), func(id schema.TabID) bool {
		return id == tabID
	})
	if !removal {
		list = append(list, tabID)
	}
	if len(list) == 0 {
		delete(lists, windowID)
	} else {
		lists[windowID] = list
	}
	if err := t.store.SaveTabsByRecency(lists); err != nil {
		log.Warn("recency save failed", "err", err)
		return fmt.Errorf("save recency: %w", err)
	}
	log.Debug("recency updated", "removal", removal, "tabs", len(list))
	return nil
}

// RemoveTab drops tabID from every window. Browsers report removal with the
// window id, but a tab moved between windows may linger in its old list.
func (t *Tracker) RemoveTab(ctx context.Context, tabID schema.TabID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	lists, err := t.store.LoadTabsByRecency()
	if err != nil {
		return fmt.Errorf("load recency: %w", err)
	}
	changed := false
	for windowID, list := range lists {
		next := slices.DeleteFunc(slices.Clone(list), func(id schema.TabID) bool {
			return id == tabID
		})
		if len(next) == len(list) {
			continue
		}
		changed = true
		if len(next) == 0 {
			delete(lists, windowID)
			continue
		}
		lists[windowID] = next
	}
	if !changed {
		return nil
	}
	if err := t.store.SaveTabsByRecency(lists); err != nil {
		return fmt.Errorf("save recency: %w", err)
	}
	logx.WithTab(ctx, tabID).Debug("recency tab purged")
	return nil
}

// RemoveWindow forgets a closed window.
func (t *Tracker) RemoveWindow(ctx context.Context, windowID schema.WindowID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	lists, err := t.store.LoadTabsByRecency()
	if err != nil {
		return fmt.Errorf("load recency: %w", err)
	}
	if _, ok := lists[windowID]; !ok {
		return nil
	}
	delete(lists, windowID)
	if err := t.store.SaveTabsByRecency(lists); err != nil {
		return fmt.Errorf("save recency: %w", err)
	}
	logx.WithWindow(ctx, windowID).Debug("recency window removed")
	return nil
}

// Recent returns the window's tabs, least recent first.
func (t *Tracker) Recent(ctx context.Context, windowID schema.WindowID) ([]schema.TabID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	lists, err := t.store.LoadTabsByRecency()
	if err != nil {
		return nil, fmt.Errorf("load recency: %w", err)
	}
	return slices.Clone(lists[windowID]), nil
}

// Previous returns the tab activated before the current one.
func (t *Tracker) Previous(ctx context.Context, windowID schema.WindowID) (schema.TabID, error) {
	list, err := t.Recent(ctx, windowID)
	if err != nil {
		return 0, err
	}
	if len(list) < 2 {
		return 0, schema.ErrNoPreviousTab
	}
	return list[len(list)-2], nil
}
