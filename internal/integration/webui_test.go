package integration_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/go-cmp/cmp"

	"pkt.systems/hintx/schema"
)

func TestPageDrivesRequestContract(t *testing.T) {
	requireLong(t)
	requireChrome(t)
	ts := newTestServer(t, []schema.Label{"a", "b", "c", "d", "e"})
	ctx := newBrowser(t)

	var claimed []string
	var formOut string
	var unknownErr string
	var frameLabels []string
	err := chromedp.Run(ctx,
		chromedp.Navigate(ts.http.URL),
		chromedp.WaitVisible(`#console`, chromedp.ByID),
		chromedp.Evaluate(`window.hintx.request(1, 0, {type: "claimHints", amount: 3})`, &claimed, awaitPromise),
		chromedp.Evaluate(`window.hintx.request(1, 0, {type: "releaseOrphanHints", hints: ["b"]}).then(() => true)`, nil, awaitPromise),
		chromedp.Evaluate(`window.hintx.state(1).then(s => s.frames["0"] || [])`, &frameLabels, awaitPromise),
		chromedp.Evaluate(`window.hintx.request(1, 0, {type: "warpDrive"}).then(() => "", err => err.message)`, &unknownErr, awaitPromise),
		chromedp.SetValue(`#tab`, "2", chromedp.ByID),
		chromedp.SetValue(`#amount`, "2", chromedp.ByID),
		chromedp.Click(`#console button[type="submit"]`, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return waitForEval(ctx, `document.getElementById("out").textContent !== ""`, 5*time.Second)
		}),
		chromedp.Text(`#out`, &formOut, chromedp.ByID),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("chromedp timed out: %v", err)
		}
		t.Fatalf("chromedp failed: %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b", "c"}, claimed); diff != "" {
		t.Fatalf("claim mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b"}, frameLabels); diff != "" {
		t.Fatalf("frame labels after orphan release (-want +got):\n%s", diff)
	}
	if !strings.Contains(unknownErr, schema.ErrUnknownAction.Error()) {
		t.Fatalf("expected unknown action error, got %q", unknownErr)
	}
	if strings.TrimSpace(formOut) != `["a","b"]` {
		t.Fatalf("unexpected form output %q", formOut)
	}

	state, err := ts.service.CurrentTabState(context.Background(), 2)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if diff := cmp.Diff([]schema.Label{"a", "b"}, state.Frames[0]); diff != "" {
		t.Fatalf("tab 2 labels (-want +got):\n%s", diff)
	}
}

func TestPageReceivesLabelEvents(t *testing.T) {
	requireLong(t)
	requireChrome(t)
	ts := newTestServer(t, []schema.Label{"a", "b", "c"})
	ctx := newBrowser(t)

	var types []string
	err := chromedp.Run(ctx,
		chromedp.Navigate(ts.http.URL),
		chromedp.WaitVisible(`#console`, chromedp.ByID),
		chromedp.Evaluate(`new Promise((resolve) => {
			window.__events = [];
			const es = new EventSource("api/stream?tab=7");
			es.onmessage = (ev) => {
				const data = JSON.parse(ev.data);
				window.__events.push(data.label ? data.label.type : data.type);
			};
			es.onopen = () => resolve(true);
		})`, nil, awaitPromise),
		chromedp.Evaluate(`window.hintx.request(7, 0, {type: "claimHints", amount: 5}).then(() => true)`, nil, awaitPromise),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return waitForEval(ctx, `window.__events.includes("exhausted")`, 5*time.Second)
		}),
		chromedp.Evaluate(`window.__events`, &types),
	)
	if err != nil {
		t.Fatalf("chromedp failed: %v", err)
	}
	if len(types) == 0 || types[0] != "snapshot" {
		t.Fatalf("expected snapshot first, got %v", types)
	}
	if !containsAll(types, []string{"provision", "exhausted"}) {
		t.Fatalf("missing label events: %v", types)
	}
}

func containsAll(have []string, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
