package core

import (
	"context"
	"fmt"

	"pkt.systems/hintx/internal/logx"
	"pkt.systems/hintx/schema"
)

// Dispatch decodes a frame request and routes it to the matching operation.
// The returned value is the JSON-ready result; a nil result means the action
// has no return value.
func (s *service) Dispatch(ctx context.Context, sender schema.Sender, msg schema.Message) (any, error) {
	if err := validateSender(ctx, sender); err != nil {
		return nil, err
	}
	if msg.Type != schema.MessageTypeRequest {
		return nil, fmt.Errorf("%w: message type %q", schema.ErrInvalidRequest, msg.Type)
	}
	result, err := s.dispatch(ctx, sender, msg.Action)
	s.metrics.Request(msg.Action.Type, err)
	if err != nil {
		logx.WithSender(ctx, sender).Warn("service request failed", "action", msg.Action.Type, "err", err)
	}
	return result, err
}

func (s *service) dispatch(ctx context.Context, sender schema.Sender, action schema.Action) (any, error) {
	switch action.Type {
	case schema.ActionInitStack:
		return nil, s.InitStack(ctx, sender)
	case schema.ActionInitTabHintsStack:
		return nil, s.InitTabHintsStack(ctx, sender)
	case schema.ActionClaimHints:
		return s.ClaimHints(ctx, sender, action.Amount)
	case schema.ActionRequestHintsProvision:
		return s.RequestHintsProvision(ctx, sender, action.Amount)
	case schema.ActionReleaseHints:
		return nil, s.ReleaseHints(ctx, sender, action.Hints)
	case schema.ActionReleaseOrphanHints:
		return nil, s.ReleaseOrphanHints(ctx, sender, action.Hints)
	case schema.ActionClaimHintText:
		res, err := s.ClaimHintText(ctx, sender)
		if err != nil || !res.OK {
			return nil, err
		}
		return res.Label, nil
	case schema.ActionReleaseHintText:
		return nil, s.ReleaseHintText(ctx, sender, action.Target)
	case schema.ActionClearFrameHints:
		return nil, s.ClearFrameHints(ctx, sender)
	case "":
		return nil, fmt.Errorf("%w: missing action type", schema.ErrInvalidRequest)
	default:
		return nil, fmt.Errorf("%w: %q", schema.ErrUnknownAction, action.Type)
	}
}
