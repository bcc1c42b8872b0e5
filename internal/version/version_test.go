package version

import (
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func TestCurrentPrefersBuildVersion(t *testing.T) {
	old := buildVersion
	buildVersion = "v1.2.3+dirty"
	t.Cleanup(func() { buildVersion = old })

	if got := Current(); got != "v1.2.3" {
		t.Fatalf("expected stamped version, got %q", got)
	}
	if got := CurrentWithDirty(); got != "v1.2.3+dirty" {
		t.Fatalf("expected dirty stamped version, got %q", got)
	}
}

func TestStampPseudoVersion(t *testing.T) {
	at := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)
	info := &debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "1234567890abcdef"},
			{Key: "vcs.time", Value: at.Format(time.RFC3339)},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	stamp, ok := readStamp(info)
	if !ok {
		t.Fatalf("expected vcs stamp")
	}
	if got := stamp.pseudo(true); got != "v0.0.0-20250102030405-1234567890ab+dirty" {
		t.Fatalf("unexpected dirty pseudo version %q", got)
	}
	if got := stamp.pseudo(false); strings.HasSuffix(got, "+dirty") {
		t.Fatalf("expected no dirty suffix, got %q", got)
	}
}

func TestReadStampRequiresRevisionAndTime(t *testing.T) {
	tests := []struct {
		name     string
		settings []debug.BuildSetting
	}{
		{name: "no-revision", settings: []debug.BuildSetting{{Key: "vcs.time", Value: "2026-03-04T05:06:07Z"}}},
		{name: "no-time", settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abcdef"}}},
		{name: "bad-time", settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abcdef"}, {Key: "vcs.time", Value: "yesterday"}}},
	}
	for _, tc := range tests {
		if _, ok := readStamp(&debug.BuildInfo{Settings: tc.settings}); ok {
			t.Fatalf("%s: expected no stamp", tc.name)
		}
	}
	if _, ok := readStamp(nil); ok {
		t.Fatalf("expected no stamp for nil build info")
	}
}
