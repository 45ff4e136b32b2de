// Package server wires the HTTP API, the background health sweep and the
// pricing hot reload over the provider registry, and owns graceful startup
// and shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/thalas777/thalas-trader-sub000/pkg/config"
	"github.com/thalas777/thalas-trader-sub000/pkg/orchestrator"
	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
	"github.com/thalas777/thalas-trader-sub000/pkg/registry"
	"github.com/thalas777/thalas-trader-sub000/pkg/server/handlers"
	"github.com/thalas777/thalas-trader-sub000/pkg/server/middleware"
	"github.com/thalas777/thalas-trader-sub000/pkg/telemetry/metrics"
)

// ConsensusPath is the strategy resource path.
const ConsensusPath = "/v1/strategies/llm-consensus"

// Server is the consensus HTTP server.
type Server struct {
	config       *config.Config
	registry     *registry.Registry
	orchestrator *orchestrator.Orchestrator
	collector    *metrics.Collector

	httpServer   *http.Server
	cron         *cron.Cron
	shutdownOnce sync.Once
	mu           sync.Mutex
	running      bool
}

// New assembles a server over an already-built registry. The collector may
// be nil when metrics are disabled.
func New(cfg *config.Config, reg *registry.Registry, collector *metrics.Collector) *Server {
	orch := orchestrator.New(reg, orchestrator.Options{
		MinProviders:    cfg.Consensus.MinProviders,
		MinConfidence:   cfg.Consensus.MinConfidence,
		Timeout:         cfg.Consensus.Timeout,
		ReasoningMaxLen: cfg.Consensus.ReasoningMaxLen,
	}, collector)

	return &Server{
		config:       cfg,
		registry:     reg,
		orchestrator: orch,
		collector:    collector,
	}
}

// Orchestrator exposes the pipeline, mainly for tests.
func (s *Server) Orchestrator() *orchestrator.Orchestrator { return s.orchestrator }

// Start runs the server and blocks until a shutdown signal, context
// cancellation or a fatal listen error.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	if err := s.setupPricing(watchCtx); err != nil {
		return err
	}
	if err := s.startHealthSweep(); err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:         s.config.Server.ListenAddress,
		Handler:      s.routes(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting consensus server",
			"address", s.config.Server.ListenAddress,
			"providers", s.registry.Len(),
			"min_providers", s.config.Consensus.MinProviders,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.Shutdown(context.Background())
		return err
	}
}

// Shutdown stops the HTTP server, the health sweep and finally the provider
// fleet, in that order. Providers close in reverse registration order.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		slog.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		if s.cron != nil {
			<-s.cron.Stop().Done()
		}

		if err := s.registry.Close(); err != nil {
			slog.Error("error closing provider registry", "error", err)
			if shutdownErr == nil {
				shutdownErr = err
			}
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		slog.Info("consensus server stopped")
	})

	return shutdownErr
}

// routes builds the mux and the middleware chain.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	consensusHandler := handlers.NewConsensusHandler(s.orchestrator, s.registry, s.config.Consensus.MinProviders)
	mux.Handle(ConsensusPath, consensusHandler)
	mux.Handle("/health", handlers.NewHealthHandler())
	mux.Handle("/v1/providers", handlers.NewProviderStatusHandler(s.registry))
	if s.collector != nil {
		mux.Handle("/metrics", s.collector.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(handler)
	return handler
}

// startHealthSweep schedules the periodic provider probe.
func (s *Server) startHealthSweep() error {
	if s.config.Health.SweepSchedule == "" {
		return nil
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.config.Health.SweepSchedule, s.sweepOnce)
	if err != nil {
		return fmt.Errorf("invalid health sweep schedule %q: %w", s.config.Health.SweepSchedule, err)
	}
	s.cron.Start()

	slog.Info("health sweep scheduled", "schedule", s.config.Health.SweepSchedule)
	return nil
}

// sweepOnce probes every provider and records the results.
func (s *Server) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Health.ProbeTimeout)
	defer cancel()

	results := s.registry.HealthCheckAll(ctx)
	healthy := 0
	for name, err := range results {
		ok := err == nil
		if ok {
			healthy++
		}
		if s.collector != nil {
			s.collector.Provider.UpdateHealth(name, ok)
		}
	}

	slog.Debug("health sweep completed", "healthy", healthy, "total", len(results))
}

// setupPricing applies the pricing override file and, if requested, keeps
// applying it on change.
func (s *Server) setupPricing(ctx context.Context) error {
	path := s.config.Pricing.OverridesFile
	if path == "" {
		return nil
	}

	overrides, err := providers.LoadPricingFile(path)
	if err != nil {
		return err
	}
	s.applyPricing(overrides)

	if s.config.Pricing.Watch {
		return providers.WatchPricingFile(ctx, path, s.applyPricing)
	}
	return nil
}

// applyPricing pushes per-provider price overrides into each adapter's
// table.
func (s *Server) applyPricing(overrides providers.PricingOverrides) {
	for _, p := range s.registry.All() {
		prices, ok := overrides[p.Name()]
		if !ok {
			continue
		}
		priced, ok := p.(interface {
			Pricing() *providers.PricingTable
		})
		if !ok {
			continue
		}
		priced.Pricing().Update(prices)
		slog.Info("pricing overrides applied", "provider", p.Name(), "models", len(prices))
	}
}
