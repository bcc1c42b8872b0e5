package hintx

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pkt.systems/hintx/core"
	"pkt.systems/hintx/httpapi"
	"pkt.systems/hintx/internal/eventbus"
	"pkt.systems/hintx/internal/metrics"
	"pkt.systems/hintx/internal/persist"
	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

// Server composes the core service with its HTTP transport.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
	// Service returns the core service for in-process callers.
	Service() core.Service
	// Subscribe streams label events for one tab in process.
	Subscribe(tabID schema.TabID) (<-chan schema.LabelEvent, func())
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service schema.ServiceConfig
	HTTP    httpapi.Config
	// Ephemeral keeps recency state in memory instead of StateDir.
	Ephemeral bool
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	ServiceDeps core.ServiceDeps
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP    bool
	enableMetrics bool
}

// WithHTTP enables the HTTP API server.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithMetrics exposes Prometheus metrics on /metrics.
func WithMetrics() ServerOption {
	return func(o *serverOptions) { o.enableMetrics = true }
}

// New constructs a composable hintx server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP {
		return nil, errors.New("no services enabled")
	}
	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized

	serviceDeps := deps.ServiceDeps
	logger := serviceDeps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}

	var store *persist.Store
	if serviceDeps.RecencyStore == nil && !cfg.Ephemeral {
		store, err = persist.OpenWithLogger(cfg.Service.StateDir, logger)
		if err != nil {
			return nil, err
		}
		serviceDeps.RecencyStore = store
	}

	var metricsHandler http.Handler
	if options.enableMetrics && serviceDeps.Metrics == nil {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		serviceDeps.Metrics = metrics.New(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{ErrorLog: pslog.LogLoggerWithLevel(logger, pslog.ErrorLevel)})
	}

	hub := httpapi.NewHub(cfg.HTTP.HistorySize)
	bus := eventbus.New(logger)
	sinks := make([]core.EventSink, 0, 4)
	if serviceDeps.EventSink != nil {
		sinks = append(sinks, serviceDeps.EventSink)
	}
	sinks = append(sinks, hub, bus)
	if serviceDeps.Metrics != nil {
		sinks = append(sinks, serviceDeps.Metrics)
	}
	serviceDeps.EventSink = eventFanout{sinks: sinks}

	service, err := core.NewService(cfg.Service, serviceDeps)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	return &compositeServer{
		cfg:     cfg,
		options: options,
		service: service,
		bus:     bus,
		store:   store,
		httpSrv: httpapi.NewServer(cfg.HTTP, service, hub, metricsHandler),
	}, nil
}

type compositeServer struct {
	cfg     ServerConfig
	options serverOptions
	service core.Service
	bus     *eventbus.Bus
	store   *persist.Store
	httpSrv *httpapi.Server
	logger  pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
	closed  bool
}

func (s *compositeServer) Service() core.Service {
	return s.service
}

func (s *compositeServer) Subscribe(tabID schema.TabID) (<-chan schema.LabelEvent, func()) {
	return s.bus.Subscribe(tabID)
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 1)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_url", s.cfg.HTTP.BaseURL,
		"http_base_path", s.cfg.HTTP.BasePath,
		"metrics", s.options.enableMetrics,
		"ephemeral", s.cfg.Ephemeral,
		"alphabet", len(s.cfg.Service.Alphabet),
	)
	if s.options.enableHTTP && s.httpSrv != nil {
		go func() {
			if err := s.httpSrv.ListenAndServe(s.ctx); err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	store := s.store
	alreadyClosed := s.closed
	s.closed = true
	s.mu.Unlock()
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	if store != nil && !alreadyClosed {
		if err := store.Close(); err != nil {
			log.Warn("server state close failed", "err", err)
		} else {
			log.Debug("server state close ok")
		}
	}
	if !started {
		return nil
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-s.ctx.Done():
		log.Info("server stopped")
		return nil
	}
}
