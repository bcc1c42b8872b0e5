package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/hintx/frame"
	"pkt.systems/hintx/internal/appconfig"
	"pkt.systems/hintx/internal/throttle"
	"pkt.systems/hintx/internal/visibility"
	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

const frameHelp = `commands:
  take N          claim N labels and show them
  drop L...       stop showing labels (released on the next refresh)
  release L...    release labels now
  refresh         run a refresh pass
  hide | show     toggle frame visibility
  reset           release every label the frame holds
  status          print shown and cached label counts
  quit`

func newFrameCmd() *cobra.Command {
	var cfgPath string
	var tab, frameID int
	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Act as a content frame against a running server, reading commands from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := frameClient(cmd, cfgPath, tab, frameID)
			if err != nil {
				return err
			}
			session := newFrameSession(cmd.Context(), client, cfg.Frame)
			defer session.Close()
			return session.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().IntVar(&tab, "tab", 0, "tab id")
	cmd.Flags().IntVar(&frameID, "frame", 0, "frame id (0 is the top frame)")
	return cmd
}

// frameSession keeps the set of labels a simulated frame shows on screen.
type frameSession struct {
	cache     *frame.Cache
	gate      *visibility.Gate
	refresher *frame.Refresher

	mu    sync.Mutex
	shown map[schema.Label]struct{}
}

func newFrameSession(ctx context.Context, client *frame.Client, cfg appconfig.FrameConfig) *frameSession {
	s := &frameSession{
		cache: frame.NewCache(client, cfg.Batch, pslog.Ctx(ctx)),
		gate:  visibility.NewGate(visibility.Visible),
		shown: make(map[schema.Label]struct{}),
	}
	interval := time.Duration(cfg.RefreshIntervalMS) * time.Millisecond
	s.refresher = frame.NewRefresher(ctx, s.cache, s.gate, interval, s.live)
	return s
}

func (s *frameSession) live() []schema.Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.Label, 0, len(s.shown))
	for label := range s.shown {
		out = append(out, label)
	}
	slices.Sort(out)
	return out
}

func (s *frameSession) Close() {
	s.refresher.Stop()
}

// Run executes one command per input line until EOF or quit.
func (s *frameSession) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := s.exec(ctx, out, fields[0], fields[1:]); err != nil {
			if _, werr := fmt.Fprintf(out, "error: %v\n", err); werr != nil {
				return werr
			}
		}
	}
	return scanner.Err()
}

func (s *frameSession) exec(ctx context.Context, out io.Writer, name string, args []string) error {
	switch name {
	case "take":
		if len(args) != 1 {
			return fmt.Errorf("%w: take N", schema.ErrInvalidRequest)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: amount: %v", schema.ErrInvalidRequest, err)
		}
		labels, err := s.cache.Take(ctx, n)
		if err != nil {
			return err
		}
		s.mu.Lock()
		for _, label := range labels {
			s.shown[label] = struct{}{}
		}
		s.mu.Unlock()
		_, err = fmt.Fprintln(out, joinLabels(labels))
		return err
	case "drop":
		s.mu.Lock()
		for _, arg := range args {
			delete(s.shown, schema.Label(arg))
		}
		s.mu.Unlock()
		s.refresher.Trigger(throttle.ReasonMutation)
		return nil
	case "release":
		labels := make([]schema.Label, 0, len(args))
		s.mu.Lock()
		for _, arg := range args {
			delete(s.shown, schema.Label(arg))
			labels = append(labels, schema.Label(arg))
		}
		s.mu.Unlock()
		return s.cache.Release(ctx, labels)
	case "refresh":
		s.refresher.Trigger(throttle.ReasonCommand)
		return nil
	case "hide":
		s.gate.SetState(visibility.Hidden)
		return nil
	case "show":
		s.gate.SetState(visibility.Visible)
		return nil
	case "reset":
		s.mu.Lock()
		clear(s.shown)
		s.mu.Unlock()
		return s.cache.Reset(ctx)
	case "status":
		_, err := fmt.Fprintf(out, "shown=%d in_use=%d cached=%d visibility=%s\n",
			len(s.live()), len(s.cache.InUse()), s.cache.Available(), s.gate.State())
		return err
	case "help":
		_, err := fmt.Fprintln(out, frameHelp)
		return err
	default:
		return fmt.Errorf("%w: %q", schema.ErrUnknownAction, name)
	}
}
