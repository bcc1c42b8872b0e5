package hintx

import (
	"context"
	"errors"
	"testing"
	"time"

	"pkt.systems/hintx/httpapi"
	"pkt.systems/hintx/internal/persist"
	"pkt.systems/hintx/schema"
)

func TestNewRequiresAService(t *testing.T) {
	if _, err := New(ServerConfig{Service: schema.ServiceConfig{StateDir: t.TempDir()}}, ServerDeps{}); err == nil {
		t.Fatalf("expected error without options")
	}
}

func TestServerFansOutEventsAndReleasesState(t *testing.T) {
	dir := t.TempDir()
	server, err := New(ServerConfig{
		Service: schema.ServiceConfig{StateDir: dir},
		HTTP:    httpapi.Config{Addr: "127.0.0.1:0"},
	}, ServerDeps{}, WithHTTP(), WithMetrics())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := persist.Open(dir); !errors.Is(err, persist.ErrStateLocked) {
		t.Fatalf("expected state dir to be locked, got %v", err)
	}

	events, cancel := server.Subscribe(4)
	defer cancel()
	ctx := context.Background()
	if err := server.Service().InitTabHintsStack(ctx, schema.Sender{TabID: 4}); err != nil {
		t.Fatalf("init: %v", err)
	}
	select {
	case event := <-events:
		if event.Type != schema.LabelEventReset || event.TabID != 4 {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected reset event on the bus")
	}
	if err := server.Service().ActivateTab(ctx, 1, 4); err != nil {
		t.Fatalf("activate: %v", err)
	}

	if err := server.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := server.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := server.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	store, err := persist.Open(dir)
	if err != nil {
		t.Fatalf("expected state dir released after stop: %v", err)
	}
	defer store.Close()
	lists, err := store.LoadTabsByRecency()
	if err != nil {
		t.Fatalf("load recency: %v", err)
	}
	if got := lists[1]; len(got) != 1 || got[0] != 4 {
		t.Fatalf("expected persisted recency [4], got %v", got)
	}
}

func TestEphemeralServerSkipsStateDir(t *testing.T) {
	dir := t.TempDir()
	server, err := New(ServerConfig{
		Service:   schema.ServiceConfig{StateDir: dir},
		Ephemeral: true,
	}, ServerDeps{}, WithHTTP())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = server.Stop(context.Background()) }()
	store, err := persist.Open(dir)
	if err != nil {
		t.Fatalf("expected state dir to stay unlocked: %v", err)
	}
	_ = store.Close()
}
