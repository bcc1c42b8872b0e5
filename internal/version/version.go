// Package version reports which hintx build is running.
package version

import (
	"runtime/debug"
	"strings"
	"time"
)

const modulePath = "pkt.systems/hintx"

// buildVersion is stamped by release builds:
// -ldflags "-X pkt.systems/hintx/internal/version.buildVersion=v1.2.3".
var buildVersion = ""

// Current returns the running version without a +dirty marker.
func Current() string {
	return resolve(false)
}

// CurrentWithDirty returns the running version, marking builds from a
// modified work tree with +dirty.
func CurrentWithDirty() string {
	return resolve(true)
}

// Module returns the main module path of the binary.
func Module() string {
	if info, ok := debug.ReadBuildInfo(); ok && strings.TrimSpace(info.Main.Path) != "" {
		return info.Main.Path
	}
	return modulePath
}

func resolve(dirty bool) string {
	if v := strings.TrimSpace(buildVersion); v != "" {
		return trimDirty(v, dirty)
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "v0.0.0-unknown"
	}
	if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
		return trimDirty(v, dirty)
	}
	if stamp, ok := readStamp(info); ok {
		return stamp.pseudo(dirty)
	}
	return "v0.0.0-unknown"
}

func trimDirty(v string, keep bool) string {
	if keep {
		return v
	}
	return strings.TrimSuffix(v, "+dirty")
}

// vcsStamp is the version control state the go tool embeds in a binary.
type vcsStamp struct {
	revision string
	at       time.Time
	modified bool
}

func readStamp(info *debug.BuildInfo) (vcsStamp, bool) {
	if info == nil {
		return vcsStamp{}, false
	}
	var stamp vcsStamp
	var at string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			stamp.revision = setting.Value
		case "vcs.time":
			at = setting.Value
		case "vcs.modified":
			stamp.modified = setting.Value == "true"
		}
	}
	parsed, err := time.Parse(time.RFC3339, at)
	if stamp.revision == "" || err != nil {
		return vcsStamp{}, false
	}
	stamp.at = parsed.UTC()
	return stamp, true
}

// pseudo formats the stamp as a Go pseudo-version.
func (s vcsStamp) pseudo(dirty bool) string {
	rev := s.revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	v := "v0.0.0-" + s.at.Format("20060102150405") + "-" + rev
	if dirty && s.modified {
		v += "+dirty"
	}
	return v
}
