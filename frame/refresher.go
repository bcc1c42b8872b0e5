package frame

import (
	"context"
	"time"

	"pkt.systems/hintx/internal/throttle"
	"pkt.systems/hintx/internal/visibility"
	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

// DefaultRefreshInterval is the minimum spacing between refresh passes.
const DefaultRefreshInterval = 150 * time.Millisecond

// LiveFunc reports the labels currently rendered in the frame.
type LiveFunc func() []schema.Label

// Refresher runs throttled refresh passes. A pass drops labels that are no
// longer rendered and reports the rest to the owner. Passes requested while
// the frame is hidden are deferred until it becomes visible.
type Refresher struct {
	ctx      context.Context
	cache    *Cache
	gate     *visibility.Gate
	live     LiveFunc
	throttle *throttle.Throttle
	log      pslog.Logger
}

// NewRefresher constructs a refresher. ctx bounds every refresh request.
func NewRefresher(ctx context.Context, cache *Cache, gate *visibility.Gate, interval time.Duration, live LiveFunc) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	r := &Refresher{
		ctx:   ctx,
		cache: cache,
		gate:  gate,
		live:  live,
		log:   pslog.Ctx(ctx),
	}
	r.throttle = throttle.New(interval, r.schedule)
	return r
}

// Trigger requests a refresh pass.
func (r *Refresher) Trigger(reason throttle.Reason) {
	r.throttle.Trigger(reason)
}

// Stop cancels any trailing pass.
func (r *Refresher) Stop() {
	r.throttle.Stop()
}

func (r *Refresher) schedule(reason throttle.Reason) {
	ran := r.gate.Defer("refresh", func() {
		r.pass(reason)
	})
	if !ran {
		r.log.Trace("frame refresh deferred", "reason", reason)
	}
}

func (r *Refresher) pass(reason throttle.Reason) {
	if r.ctx.Err() != nil {
		return
	}
	if r.live != nil {
		r.cache.Retain(r.live())
	}
	if err := r.cache.Refresh(r.ctx); err != nil {
		r.log.Warn("frame refresh failed", "reason", reason, "err", err)
		return
	}
	r.log.Trace("frame refresh done", "reason", reason, "active", len(r.cache.Active()))
}
