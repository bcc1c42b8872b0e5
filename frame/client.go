package frame

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"pkt.systems/hintx/schema"
)

// Client wraps a Requester with one method per action.
type Client struct {
	req Requester
}

// NewClient constructs a Client.
func NewClient(req Requester) *Client {
	return &Client{req: req}
}

// InitStack makes sure the tab's pools exist.
func (c *Client) InitStack(ctx context.Context) error {
	return c.call(ctx, schema.Action{Type: schema.ActionInitStack}, nil)
}

// InitTabHintsStack resets the tab's label space.
func (c *Client) InitTabHintsStack(ctx context.Context) error {
	return c.call(ctx, schema.Action{Type: schema.ActionInitTabHintsStack}, nil)
}

// ClaimHints claims up to amount labels.
func (c *Client) ClaimHints(ctx context.Context, amount int) ([]schema.Label, error) {
	var out []schema.Label
	if err := c.call(ctx, schema.Action{Type: schema.ActionClaimHints, Amount: amount}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RequestHintsProvision claims up to amount labels for a local cache.
func (c *Client) RequestHintsProvision(ctx context.Context, amount int) (schema.HintsProvision, error) {
	var out schema.HintsProvision
	if err := c.call(ctx, schema.Action{Type: schema.ActionRequestHintsProvision, Amount: amount}, &out); err != nil {
		return schema.HintsProvision{}, err
	}
	return out, nil
}

// ReleaseHints returns labels to the pool.
func (c *Client) ReleaseHints(ctx context.Context, labels []schema.Label) error {
	if len(labels) == 0 {
		return nil
	}
	return c.call(ctx, schema.Action{Type: schema.ActionReleaseHints, Hints: labels}, nil)
}

// ReleaseOrphanHints reports the labels still in use so the rest are reclaimed.
func (c *Client) ReleaseOrphanHints(ctx context.Context, active []schema.Label) error {
	if active == nil {
		active = []schema.Label{}
	}
	return c.call(ctx, schema.Action{Type: schema.ActionReleaseOrphanHints, Hints: active}, nil)
}

// ClaimHintText claims a hint-text label. ok is false when none is left.
func (c *Client) ClaimHintText(ctx context.Context) (schema.Label, bool, error) {
	var out *schema.Label
	if err := c.call(ctx, schema.Action{Type: schema.ActionClaimHintText}, &out); err != nil {
		return "", false, err
	}
	if out == nil {
		return "", false, nil
	}
	return *out, true, nil
}

// ReleaseHintText returns a hint-text label.
func (c *Client) ReleaseHintText(ctx context.Context, label schema.Label) error {
	return c.call(ctx, schema.Action{Type: schema.ActionReleaseHintText, Target: label}, nil)
}

// ClearFrameHints releases everything this frame holds.
func (c *Client) ClearFrameHints(ctx context.Context) error {
	return c.call(ctx, schema.Action{Type: schema.ActionClearFrameHints}, nil)
}

func (c *Client) call(ctx context.Context, action schema.Action, dst any) error {
	raw, err := c.req.Request(ctx, schema.NewRequest(action))
	if err != nil {
		return err
	}
	if dst == nil || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s result: %w", action.Type, err)
	}
	return nil
}
