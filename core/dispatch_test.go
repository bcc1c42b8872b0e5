package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pkt.systems/hintx/schema"
)

func TestDispatchRoutesActions(t *testing.T) {
	svc := newTestService(t, labels("a", "b", "c"), ServiceDeps{})
	ctx := context.Background()
	sender := schema.Sender{TabID: 3, FrameID: 1}

	if res, err := svc.Dispatch(ctx, sender, schema.NewRequest(schema.Action{Type: schema.ActionInitStack})); err != nil || res != nil {
		t.Fatalf("init stack: res=%v err=%v", res, err)
	}
	res, err := svc.Dispatch(ctx, sender, schema.NewRequest(schema.Action{Type: schema.ActionClaimHints, Amount: 2}))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if diff := cmp.Diff(labels("a", "b"), res); diff != "" {
		t.Fatalf("claim mismatch (-want +got):\n%s", diff)
	}
	if _, err := svc.Dispatch(ctx, sender, schema.NewRequest(schema.Action{Type: schema.ActionReleaseOrphanHints, Hints: labels("b")})); err != nil {
		t.Fatalf("release orphans: %v", err)
	}
	res, err = svc.Dispatch(ctx, sender, schema.NewRequest(schema.Action{Type: schema.ActionRequestHintsProvision, Amount: 1}))
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	want := schema.HintsProvision{Hints: labels("a"), InitialAmount: 3}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("provision mismatch (-want +got):\n%s", diff)
	}
	res, err = svc.Dispatch(ctx, sender, schema.NewRequest(schema.Action{Type: schema.ActionClaimHintText}))
	if err != nil {
		t.Fatalf("claim text: %v", err)
	}
	if res != schema.Label("A") {
		t.Fatalf("expected label A, got %#v", res)
	}
	if _, err := svc.Dispatch(ctx, sender, schema.NewRequest(schema.Action{Type: schema.ActionReleaseHintText, Target: "A"})); err != nil {
		t.Fatalf("release text: %v", err)
	}
	if _, err := svc.Dispatch(ctx, sender, schema.NewRequest(schema.Action{Type: schema.ActionReleaseHints, Hints: labels("a", "b")})); err != nil {
		t.Fatalf("release: %v", err)
	}
	state, err := svc.CurrentTabState(ctx, 3)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.PoolSize != 3 || state.TextPoolSize != 26 {
		t.Fatalf("expected everything returned, got %+v", state)
	}
}

func TestDispatchHintTextExhaustedReturnsNil(t *testing.T) {
	svc, err := NewService(schema.ServiceConfig{
		StateDir:     t.TempDir(),
		Alphabet:     labels("a", "b"),
		TextAlphabet: labels("X"),
		LowWaterMark: 1,
	}, ServiceDeps{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	sender := schema.Sender{TabID: 1}
	msg := schema.NewRequest(schema.Action{Type: schema.ActionClaimHintText})
	if res, err := svc.Dispatch(ctx, sender, msg); err != nil || res != schema.Label("X") {
		t.Fatalf("first claim: res=%v err=%v", res, err)
	}
	res, err := svc.Dispatch(ctx, sender, msg)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if res != nil {
		t.Fatalf("expected nil result on exhaustion, got %#v", res)
	}
}

func TestDispatchRejectsMalformedMessages(t *testing.T) {
	svc := newTestService(t, labels("a", "b", "c"), ServiceDeps{})
	ctx := context.Background()
	sender := schema.Sender{TabID: 1}
	tests := []struct {
		name string
		msg  schema.Message
		want error
	}{
		{name: "wrong type", msg: schema.Message{Type: "response", Action: schema.Action{Type: schema.ActionInitStack}}, want: schema.ErrInvalidRequest},
		{name: "missing action", msg: schema.NewRequest(schema.Action{}), want: schema.ErrInvalidRequest},
		{name: "unknown action", msg: schema.NewRequest(schema.Action{Type: "stealHints"}), want: schema.ErrUnknownAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Dispatch(ctx, sender, tt.msg); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
