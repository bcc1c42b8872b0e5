package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pkt.systems/hintx/core"
	"pkt.systems/hintx/frame"
	"pkt.systems/hintx/internal/appconfig"
	"pkt.systems/hintx/internal/persist"
	"pkt.systems/hintx/internal/recency"
	"pkt.systems/hintx/schema"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"claim", "frame", "init", "recent", "release", "serve", "version"}
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	for _, name := range want {
		found := false
		for _, have := range got {
			if have == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing command %q in %v", name, got)
		}
	}
}

func TestInitWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hintx", "config.yaml")
	run := func(args ...string) error {
		root := newRootCmd()
		root.SetArgs(args)
		root.SetOut(&bytes.Buffer{})
		return root.ExecuteContext(context.Background())
	}
	if err := run("init", "-c", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "config_version: 1") {
		t.Fatalf("config missing version:\n%s", data)
	}
	if err := run("init", "-c", path); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if err := run("init", "-c", path, "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}
	cfg, err := appconfig.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.HTTP.Addr == "" {
		t.Fatalf("expected default http addr")
	}
}

func TestServerURL(t *testing.T) {
	tests := []struct {
		name string
		http appconfig.HTTPConfig
		want string
	}{
		{name: "addr", http: appconfig.HTTPConfig{Addr: "127.0.0.1:27430"}, want: "http://127.0.0.1:27430"},
		{name: "port-only", http: appconfig.HTTPConfig{Addr: ":8080"}, want: "http://127.0.0.1:8080"},
		{name: "base-path", http: appconfig.HTTPConfig{Addr: "localhost:1", BasePath: "/hintx/"}, want: "http://localhost:1/hintx"},
		{name: "base-url", http: appconfig.HTTPConfig{Addr: ":1", BaseURL: "https://example.com/h/"}, want: "https://example.com/h"},
	}
	for _, tc := range tests {
		got := serverURL(appconfig.Config{HTTP: tc.http})
		if got != tc.want {
			t.Fatalf("%s: serverURL = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSenderFlagsRejectsNegativeIDs(t *testing.T) {
	if _, err := senderFlags(-1, 0); err != schema.ErrInvalidTab {
		t.Fatalf("expected ErrInvalidTab, got %v", err)
	}
	if _, err := senderFlags(1, -1); err != schema.ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	sender, err := senderFlags(3, 2)
	if err != nil {
		t.Fatalf("sender: %v", err)
	}
	if sender.TabID != 3 || sender.FrameID != 2 {
		t.Fatalf("unexpected sender %+v", sender)
	}
}

func TestRecentFromState(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := persist.Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	tracker := recency.New(store)
	for _, tab := range []schema.TabID{4, 7, 4} {
		if err := tracker.UpdateRecentTab(ctx, 1, tab, false); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	if _, err := recentFromState(ctx, dir, 1); err != persist.ErrStateLocked {
		t.Fatalf("expected ErrStateLocked while held, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
	got, err := recentFromState(ctx, dir, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if diff := cmp.Diff([]schema.TabID{7, 4}, got); diff != "" {
		t.Fatalf("recent mismatch (-want +got):\n%s", diff)
	}
}

func TestRecentFromServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tabs/recent" || r.URL.Query().Get("window") != "2" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"tabs":[5,9]}`))
	}))
	defer srv.Close()

	got, err := recentFromServer(context.Background(), srv.URL, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if diff := cmp.Diff([]schema.TabID{5, 9}, got); diff != "" {
		t.Fatalf("recent mismatch (-want +got):\n%s", diff)
	}
	if _, err := recentFromServer(context.Background(), srv.URL, 3); err == nil {
		t.Fatalf("expected error for unknown window")
	}
}

func TestFrameSession(t *testing.T) {
	ctx := context.Background()
	svc, err := core.NewService(schema.ServiceConfig{
		StateDir:     t.TempDir(),
		Alphabet:     []schema.Label{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		LowWaterMark: 1,
	}, core.ServiceDeps{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	client := frame.NewClient(frame.NewLocal(svc, schema.Sender{TabID: 1, FrameID: 0}))
	session := newFrameSession(ctx, client, appconfig.FrameConfig{Batch: 4, RefreshIntervalMS: 10})
	defer session.Close()

	var out bytes.Buffer
	input := "take 2\nrelease a\nstatus\nhide\nstatus\nbogus\nshow\nquit\ntake 1\n"
	if err := session.Run(ctx, strings.NewReader(input), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{
		"a b",
		"shown=1 in_use=1 cached=2 visibility=visible",
		"shown=1 in_use=1 cached=2 visibility=hidden",
	}
	if len(lines) != 4 {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if diff := cmp.Diff(want, lines[:3]); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(lines[3], "error: ") {
		t.Fatalf("expected error line, got %q", lines[3])
	}

	state, err := svc.CurrentTabState(ctx, 1)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if diff := cmp.Diff([]schema.Label{"b", "c", "d"}, state.Frames[0]); diff != "" {
		t.Fatalf("frame labels mismatch (-want +got):\n%s", diff)
	}

	out.Reset()
	if err := session.Run(ctx, strings.NewReader("drop b\n"), &out); err != nil {
		t.Fatalf("run drop: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		state, err = svc.CurrentTabState(ctx, 1)
		if err != nil {
			t.Fatalf("state: %v", err)
		}
		if cmp.Equal([]schema.Label{"c", "d"}, state.Frames[0]) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("dropped label not reclaimed: %v", state.Frames[0])
		}
		time.Sleep(10 * time.Millisecond)
	}
}
