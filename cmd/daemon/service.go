// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/ManuGH/onair/internal/api"
	"github.com/ManuGH/onair/internal/config"
	"github.com/ManuGH/onair/internal/daemon"
	"github.com/ManuGH/onair/internal/health"
	"github.com/ManuGH/onair/internal/jobs"
	onairlog "github.com/ManuGH/onair/internal/log"
	"github.com/ManuGH/onair/internal/metrics"
	"github.com/ManuGH/onair/internal/programations"
	"github.com/ManuGH/onair/internal/resilience"
	"github.com/ManuGH/onair/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// staleCycles is how many missed schedule intervals degrade health.
const staleCycles = 3

// service bundles the long-lived components shared by daemon and --once mode.
type service struct {
	holder  *config.Holder
	runner  *jobs.Runner
	health  *health.Manager
	clients *clientTracker
}

func newService(cfg config.AppConfig, loader *config.Loader) *service {
	holder := config.NewHolder(cfg, loader)
	clients := &clientTracker{build: jobs.NewProgramationsClient}
	runner := jobs.NewRunner(jobs.ConfigDeps(holder.Get, clients.factory))

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewFileChecker("config_file", loader.Path()))
	hm.RegisterChecker(health.NewLastRunChecker(runner.LastRun, staleAfter(cfg, time.Now())))
	hm.RegisterChecker(health.NewBreakerChecker(clients.breakerState))

	return &service{
		holder:  holder,
		runner:  runner,
		health:  hm,
		clients: clients,
	}
}

// staleAfter derives the health staleness threshold from the schedule
// (0 disables the check when the schedule cannot be interpreted).
func staleAfter(cfg config.AppConfig, now time.Time) time.Duration {
	loc, err := cfg.Location()
	if err != nil {
		return 0
	}
	interval, err := scheduler.Interval(cfg.Schedule, loc, now)
	if err != nil {
		return 0
	}
	return staleCycles*interval + cfg.API.Timeout
}

// clientTracker remembers the client built for the current API config so
// health checks can read its breaker.
type clientTracker struct {
	build   jobs.ClientFactory
	current atomic.Pointer[programations.Client]
}

func (t *clientTracker) factory(api config.APIConfig) (jobs.Client, error) {
	c, err := t.build(api)
	if err != nil {
		return nil, err
	}
	if pc, ok := c.(*programations.Client); ok {
		t.current.Store(pc)
	}
	return c, nil
}

func (t *clientTracker) breakerState() string {
	c := t.current.Load()
	if c == nil {
		return string(resilience.StateClosed)
	}
	return string(c.BreakerState())
}

// job adapts the runner to the scheduler.
func (svc *service) job(ctx context.Context, trigger string) {
	if _, err := svc.runner.Run(ctx, trigger); err != nil && !errors.Is(err, jobs.ErrCycleInProgress) {
		logger := onairlog.WithComponentFromContext(ctx, "daemon")
		logger.Error().
			Err(err).
			Str(onairlog.FieldEvent, "cycle.failed").
			Str(onairlog.FieldTrigger, trigger).
			Msg("sync cycle failed")
	}
}

// runOnce runs a single cycle, writes its status as JSON to out and returns
// the process exit code: 0 only for a fully successful cycle.
func runOnce(ctx context.Context, svc *service, out io.Writer) int {
	status, err := svc.runner.Run(ctx, jobs.TriggerOnce)
	if err != nil {
		logger := onairlog.WithComponent("daemon")
		logger.Error().
			Err(err).
			Str(onairlog.FieldEvent, "cycle.failed").
			Msg("sync cycle failed")
		return 1
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(status); err != nil {
		return 1
	}
	if status.Outcome() != metrics.CycleSuccess {
		return 1
	}
	return 0
}

// metricsHandler exposes Prometheus on /metrics only.
func metricsHandler() *chi.Mux {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// runDaemon wires the scheduler, API and metrics listeners and blocks until
// ctx is cancelled.
func runDaemon(ctx context.Context, cfg config.AppConfig, svc *service, flushTraces daemon.ShutdownHook) error {
	logger := onairlog.WithComponent("daemon")

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	sched, err := scheduler.New(scheduler.Config{
		Spec:       cfg.Schedule,
		Location:   loc,
		RunOnStart: cfg.RunOnStart,
	}, svc.job)
	if err != nil {
		return err
	}

	apiCfg := api.Config{}
	if cfg.Telemetry.Enabled {
		apiCfg.TracingService = cfg.LogService
	}
	srv := api.New(apiCfg, svc.runner, svc.health)

	deps := daemon.Deps{
		Logger:     logger,
		APIHandler: srv.Handler(),
	}
	if cfg.MetricsAddr != "" {
		deps.MetricsHandler = metricsHandler()
	}

	mgr, err := daemon.NewManager(daemon.ServerConfigFrom(cfg), deps)
	if err != nil {
		return fmt.Errorf("create daemon manager: %w", err)
	}
	if flushTraces != nil {
		mgr.RegisterShutdownHook("telemetry", flushTraces)
	}

	return daemon.NewApp(logger, mgr, svc.holder, sched).Run(ctx)
}
