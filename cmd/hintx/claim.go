package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/hintx/frame"
	"pkt.systems/hintx/internal/appconfig"
	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

func newClaimCmd() *cobra.Command {
	var cfgPath string
	var tab, frameID, amount int
	var text bool
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim labels from a running server on behalf of a frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := frameClient(cmd, cfgPath, tab, frameID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if text {
				label, ok, err := client.ClaimHintText(cmd.Context())
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("hint text labels exhausted")
				}
				_, err = fmt.Fprintln(out, label)
				return err
			}
			labels, err := client.ClaimHints(cmd.Context(), amount)
			if err != nil {
				return err
			}
			if len(labels) < amount {
				pslog.Ctx(cmd.Context()).Warn("claim labels short", "requested", amount, "got", len(labels))
			}
			_, err = fmt.Fprintln(out, joinLabels(labels))
			return err
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().IntVar(&tab, "tab", 0, "tab id")
	cmd.Flags().IntVar(&frameID, "frame", 0, "frame id (0 is the top frame)")
	cmd.Flags().IntVarP(&amount, "amount", "n", 1, "number of labels")
	cmd.Flags().BoolVar(&text, "text", false, "claim a single hint text label")
	return cmd
}

func newReleaseCmd() *cobra.Command {
	var cfgPath string
	var tab, frameID int
	var text, all bool
	cmd := &cobra.Command{
		Use:   "release [label...]",
		Short: "Release labels held by a frame on a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := frameClient(cmd, cfgPath, tab, frameID)
			if err != nil {
				return err
			}
			switch {
			case all:
				return client.ClearFrameHints(cmd.Context())
			case text:
				if len(args) != 1 {
					return fmt.Errorf("%w: --text takes exactly one label", schema.ErrInvalidRequest)
				}
				return client.ReleaseHintText(cmd.Context(), schema.Label(args[0]))
			case len(args) == 0:
				return fmt.Errorf("%w: no labels given", schema.ErrInvalidRequest)
			}
			labels := make([]schema.Label, 0, len(args))
			for _, arg := range args {
				labels = append(labels, schema.Label(arg))
			}
			return client.ReleaseHints(cmd.Context(), labels)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().IntVar(&tab, "tab", 0, "tab id")
	cmd.Flags().IntVar(&frameID, "frame", 0, "frame id (0 is the top frame)")
	cmd.Flags().BoolVar(&text, "text", false, "release a hint text label")
	cmd.Flags().BoolVar(&all, "all", false, "release every label the frame holds")
	return cmd
}

func frameClient(cmd *cobra.Command, cfgPath string, tab, frameID int) (*frame.Client, appconfig.Config, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, appconfig.Config{}, err
	}
	sender, err := senderFlags(tab, frameID)
	if err != nil {
		return nil, appconfig.Config{}, err
	}
	req := frame.NewHTTPRequester(serverURL(cfg), sender, newHTTPClient())
	pslog.Ctx(cmd.Context()).Debug("frame client ready", "url", serverURL(cfg), "client", req.Instance())
	return frame.NewClient(req), cfg, nil
}

func joinLabels(labels []schema.Label) string {
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, string(label))
	}
	return strings.Join(parts, " ")
}
