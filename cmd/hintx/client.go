package main

import (
	"net/http"
	"strings"
	"time"

	"pkt.systems/hintx/internal/appconfig"
	"pkt.systems/hintx/schema"
)

// serverURL returns the URL the CLI uses to reach a running server.
func serverURL(cfg appconfig.Config) string {
	if base := strings.TrimSpace(cfg.HTTP.BaseURL); base != "" {
		return strings.TrimRight(base, "/")
	}
	host := cfg.HTTP.Addr
	if strings.HasPrefix(host, ":") {
		host = "127.0.0.1" + host
	}
	path := strings.Trim(strings.TrimSpace(cfg.HTTP.BasePath), "/")
	if path == "" {
		return "http://" + host
	}
	return "http://" + host + "/" + path
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func senderFlags(tab, frame int) (schema.Sender, error) {
	if tab < 0 {
		return schema.Sender{}, schema.ErrInvalidTab
	}
	if frame < 0 {
		return schema.Sender{}, schema.ErrInvalidRequest
	}
	return schema.Sender{TabID: schema.TabID(tab), FrameID: schema.FrameID(frame)}, nil
}
