package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/hintx"
	"pkt.systems/hintx/core"
	"pkt.systems/hintx/httpapi"
	"pkt.systems/hintx/internal/appconfig"
	"pkt.systems/pslog"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var ephemeral bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the hintx server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			serviceCfg, err := cfg.ServiceConfig()
			if err != nil {
				return err
			}
			serverCfg := hintx.ServerConfig{
				Service:   serviceCfg,
				HTTP:      toHTTPConfig(cfg.HTTP),
				Ephemeral: ephemeral,
			}
			serverDeps := hintx.ServerDeps{
				ServiceDeps: core.ServiceDeps{Logger: logger},
			}
			opts := []hintx.ServerOption{hintx.WithHTTP()}
			if cfg.Metrics.Enabled {
				opts = append(opts, hintx.WithMetrics())
			}
			server, err := hintx.New(serverCfg, serverDeps, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			logger.Info("http server listening", "addr", serverCfg.HTTP.Addr, "alphabet", len(serviceCfg.Alphabet), "ephemeral", ephemeral)
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "keep tab recency in memory only")
	return cmd
}

func toHTTPConfig(cfg appconfig.HTTPConfig) httpapi.Config {
	return httpapi.Config{
		Addr:        cfg.Addr,
		BaseURL:     cfg.BaseURL,
		BasePath:    cfg.BasePath,
		HistorySize: cfg.HistorySize,
	}
}
