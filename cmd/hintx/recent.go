package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"pkt.systems/hintx/internal/appconfig"
	"pkt.systems/hintx/internal/persist"
	"pkt.systems/hintx/internal/recency"
	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

func newRecentCmd() *cobra.Command {
	var cfgPath string
	var window int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Print a window's tabs, least recently used first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if window < 0 {
				return schema.ErrInvalidWindow
			}
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			tabs, err := recentFromState(cmd.Context(), cfg.StateDir, schema.WindowID(window))
			if errors.Is(err, persist.ErrStateLocked) {
				pslog.Ctx(cmd.Context()).Debug("recent state locked; asking server", "state_dir", cfg.StateDir)
				tabs, err = recentFromServer(cmd.Context(), serverURL(cfg), schema.WindowID(window))
			}
			if err != nil {
				return err
			}
			return printTabs(cmd.OutOrStdout(), tabs)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().IntVarP(&window, "window", "w", 0, "window id")
	return cmd
}

func recentFromState(ctx context.Context, dir string, window schema.WindowID) ([]schema.TabID, error) {
	store, err := persist.OpenWithLogger(dir, pslog.Ctx(ctx))
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return recency.New(store).Recent(ctx, window)
}

func recentFromServer(ctx context.Context, baseURL string, window schema.WindowID) ([]schema.TabID, error) {
	url := baseURL + "/api/tabs/recent?window=" + strconv.Itoa(int(window))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := newHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recent tabs: %s", resp.Status)
	}
	var body struct {
		Tabs []schema.TabID `json:"tabs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Tabs, nil
}

func printTabs(w io.Writer, tabs []schema.TabID) error {
	for _, tab := range tabs {
		if _, err := fmt.Fprintln(w, tab); err != nil {
			return err
		}
	}
	return nil
}
