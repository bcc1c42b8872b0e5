package frame

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"pkt.systems/hintx/internal/framereg"
	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

// DefaultBatch is how many labels a Cache asks for per provision.
const DefaultBatch = 30

// Cache keeps a frame-local supply of labels so rendering hints does not
// need a round trip per label. Every label in the cache, handed out or not,
// is assigned to this frame by the background owner.
type Cache struct {
	client *Client
	batch  int
	log    pslog.Logger

	mu        sync.Mutex
	available []schema.Label
	inUse     *framereg.LabelSet
	initial   int

	// reconcile is read-held across each provision round trip and
	// write-held while the owner is told which labels are live.
	reconcile sync.RWMutex
	refill    singleflight.Group
}

// NewCache constructs a cache that provisions batch labels at a time.
func NewCache(client *Client, batch int, logger pslog.Logger) *Cache {
	if batch <= 0 {
		batch = DefaultBatch
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Cache{
		client: client,
		batch:  batch,
		log:    logger,
		inUse:  framereg.NewLabelSet(),
	}
}

// Take hands out up to n labels, provisioning more when the local supply
// cannot cover the request or drops below half a batch.
func (c *Cache) Take(ctx context.Context, n int) ([]schema.Label, error) {
	if n <= 0 {
		return []schema.Label{}, nil
	}
	c.mu.Lock()
	short := n - len(c.available)
	c.mu.Unlock()
	if short > 0 {
		if err := c.provision(ctx, max(short, c.batch)); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	count := min(n, len(c.available))
	out := slices.Clone(c.available[:count])
	c.available = c.available[count:]
	c.inUse.AddLabelsInFrame(out...)
	low := len(c.available) < c.batch/2
	c.mu.Unlock()

	if low {
		if err := c.provision(ctx, c.batch); err != nil {
			c.log.Debug("frame cache refill failed", "err", err)
		}
	}
	return out, nil
}

// Release returns labels the frame no longer renders to the background owner.
func (c *Cache) Release(ctx context.Context, labels []schema.Label) error {
	c.mu.Lock()
	owned := make([]schema.Label, 0, len(labels))
	for _, label := range labels {
		if c.inUse.Has(label) {
			owned = append(owned, label)
		}
	}
	c.inUse.DeleteLabelsInFrame(owned...)
	c.mu.Unlock()
	return c.client.ReleaseHints(ctx, owned)
}

// Retain keeps only the in-use labels listed in live; the rest are dropped
// locally and reclaimed by the next Refresh.
func (c *Cache) Retain(live []schema.Label) {
	keep := make(map[schema.Label]struct{}, len(live))
	for _, label := range live {
		keep[label] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var stale []schema.Label
	for _, label := range c.inUse.GetLabelsInFrame() {
		if _, ok := keep[label]; !ok {
			stale = append(stale, label)
		}
	}
	c.inUse.DeleteLabelsInFrame(stale...)
}

// Refresh reports the frame's live labels so the owner reclaims the rest.
func (c *Cache) Refresh(ctx context.Context) error {
	c.reconcile.Lock()
	defer c.reconcile.Unlock()
	return c.client.ReleaseOrphanHints(ctx, c.Active())
}

// Reset forgets every label and asks the owner to clear the frame.
func (c *Cache) Reset(ctx context.Context) error {
	c.reconcile.Lock()
	defer c.reconcile.Unlock()
	c.mu.Lock()
	c.available = nil
	c.inUse.ClearLabelsInFrame()
	c.mu.Unlock()
	return c.client.ClearFrameHints(ctx)
}

// Active returns every label the frame holds: handed out and spare.
func (c *Cache) Active() []schema.Label {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.inUse.GetLabelsInFrame()
	return append(out, c.available...)
}

// InUse returns the labels currently handed out.
func (c *Cache) InUse() []schema.Label {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inUse.GetLabelsInFrame()
}

// Available reports the size of the local supply.
func (c *Cache) Available() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.available)
}

// InitialAmount reports the owner's pool size as of the last provision.
func (c *Cache) InitialAmount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initial
}

// provision coalesces concurrent refills into one request.
func (c *Cache) provision(ctx context.Context, amount int) error {
	_, err, shared := c.refill.Do("provision", func() (any, error) {
		c.reconcile.RLock()
		defer c.reconcile.RUnlock()
		prov, err := c.client.RequestHintsProvision(ctx, amount)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.available = append(c.available, prov.Hints...)
		c.initial = prov.InitialAmount
		c.mu.Unlock()
		c.log.Trace("frame cache provisioned", "requested", amount, "granted", len(prov.Hints))
		return nil, nil
	})
	if shared {
		c.log.Trace("frame cache refill shared")
	}
	return err
}
