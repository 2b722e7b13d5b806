package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/centinela/internal/analyzer"
	"github.com/raysh454/centinela/internal/cli"
	"github.com/raysh454/centinela/internal/logging"
	"github.com/raysh454/centinela/internal/metrics"
	"github.com/raysh454/centinela/internal/monitor"
)

// Application is the global runtime state container.
// It holds config, parsed CLI args and the core services that are shared
// across modules (orchestrator, logger). Pass Application into modules that
// need access to the global state rather than using package-level variables.
type Application struct {
	Config *Config
	Args   *cli.CLIArgs

	Logger   logging.Logger
	Analyzer analyzer.Analyzer
	Orch     *Orchestrator
	Metrics  *metrics.Metrics

	// Monitor is nil when Config.HealthCheckSpec is empty.
	Monitor *monitor.HealthMonitor

	// internal context for cancellation / lifecycle
	ctx    context.Context
	cancel context.CancelFunc
}

// NewApplication wires an orchestrator (and optionally a health monitor)
// around an already-constructed analyzer.
func NewApplication(cfg *Config, args *cli.CLIArgs, logger logging.Logger, an analyzer.Analyzer) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if an == nil {
		return nil, errors.New("analyzer is nil")
	}

	var mon *monitor.HealthMonitor
	if cfg.HealthCheckSpec != "" {
		m, err := monitor.NewHealthMonitor(an, cfg.HealthCheckSpec, cfg.WebClientCfg.Timeout, logger)
		if err != nil {
			return nil, fmt.Errorf("creating health monitor: %w", err)
		}
		mon = m
	}

	met := metrics.New()
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		Config:   cfg,
		Args:     args,
		Logger:   logger,
		Analyzer: an,
		Orch:     NewOrchestrator(an, logger).WithMetrics(met),
		Metrics:  met,
		Monitor:  mon,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Context is canceled on Shutdown; use it for work that should not outlive
// the application.
func (a *Application) Context() context.Context {
	return a.ctx
}

// Start begins background work. Only the health monitor runs in the
// background; one-shot runs leave it stopped.
func (a *Application) Start() error {
	if a == nil {
		return errors.New("application is nil")
	}
	fields := []logging.Field{{Key: "api_base_url", Value: a.Config.APIBaseURL}}
	if a.Args != nil {
		fields = append(fields, logging.Field{Key: "args", Value: a.Args.RawArgs})
	}
	a.Logger.Info("application starting", fields...)
	if a.Monitor != nil {
		a.Monitor.Start()
	}
	return nil
}

// Shutdown stops the monitor, waits (bounded by ctx) for an in-flight
// analysis and releases the analyzer.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	if a.Monitor != nil {
		a.Monitor.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = a.Orch.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		a.Logger.Warn("orchestrator did not drain before shutdown deadline")
	}

	// cancel internal ctx to signal local components/tests
	a.cancel()

	if err := a.Analyzer.Close(); err != nil {
		a.Logger.Info("analyzer close returned error", logging.Field{Key: "error", Value: err.Error()})
	}
	return nil
}
