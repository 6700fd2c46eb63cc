// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/onair/internal/config"
	onairlog "github.com/ManuGH/onair/internal/log"
	"github.com/ManuGH/onair/internal/metrics"
	"github.com/ManuGH/onair/internal/programations"
)

// DepsFunc yields the dependencies and options for the next cycle.
type DepsFunc func() (Deps, Options, error)

// Runner serialises cycles from every trigger and remembers the last result.
type Runner struct {
	deps    DepsFunc
	running sync.Mutex
	busy    atomic.Bool

	mu          sync.RWMutex
	last        *Status
	lastErr     error
	lastSuccess time.Time
}

// NewRunner creates a runner that resolves its dependencies per cycle.
func NewRunner(deps DepsFunc) *Runner {
	return &Runner{deps: deps}
}

// Run executes one cycle unless another is in flight, in which case it
// returns ErrCycleInProgress without waiting.
func (r *Runner) Run(ctx context.Context, trigger string) (*Status, error) {
	if !r.running.TryLock() {
		metrics.RecordCycle(metrics.CycleSkipped, 0)
		logger := onairlog.WithComponentFromContext(ctx, "jobs")
		logger.Warn().
			Str(onairlog.FieldEvent, "cycle.skipped").
			Str(onairlog.FieldTrigger, trigger).
			Msg("previous sync cycle still running, skipping")
		return nil, ErrCycleInProgress
	}
	defer r.running.Unlock()
	r.busy.Store(true)
	defer r.busy.Store(false)

	deps, opts, err := r.deps()
	if err != nil {
		err = fmt.Errorf("resolve cycle dependencies: %w", err)
		r.record(nil, err)
		return nil, err
	}
	if trigger != "" {
		opts.Trigger = trigger
	}

	status, err := Run(ctx, deps, opts)
	r.record(status, err)
	return status, err
}

func (r *Runner) record(status *Status, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status != nil {
		r.last = status
	}
	r.lastErr = err
	if err == nil && status != nil && status.FetchError == "" {
		r.lastSuccess = status.FinishedAt
	}
}

// Running reports whether a cycle is currently in flight.
func (r *Runner) Running() bool {
	return r.busy.Load()
}

// Last returns a copy of the most recent cycle status, if any.
func (r *Runner) Last() (Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return Status{}, false
	}
	st := *r.last
	st.Active = append([]string(nil), r.last.Active...)
	return st, true
}

// LastRun returns the finish time of the last cycle that reached the CMS and
// the error of the most recent cycle, for health checks.
func (r *Runner) LastRun() (time.Time, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch {
	case r.lastErr != nil:
		return r.lastSuccess, r.lastErr.Error()
	case r.last != nil && r.last.FetchError != "":
		return r.lastSuccess, r.last.FetchError
	default:
		return r.lastSuccess, ""
	}
}

// ClientFactory builds an API client from its configuration section.
type ClientFactory func(config.APIConfig) (Client, error)

// ConfigDeps resolves cycle dependencies from the live configuration. The
// client is rebuilt only when the API section changes so that breaker and
// rate limiter state carries across cycles.
func ConfigDeps(current func() config.AppConfig, newClient ClientFactory) DepsFunc {
	var (
		mu       sync.Mutex
		client   Client
		builtFor config.APIConfig
	)
	return func() (Deps, Options, error) {
		cfg := current()

		loc, err := cfg.Location()
		if err != nil {
			return Deps{}, Options{}, err
		}

		mu.Lock()
		if client == nil || builtFor != cfg.API {
			c, err := newClient(cfg.API)
			if err != nil {
				mu.Unlock()
				return Deps{}, Options{}, fmt.Errorf("create client: %w", err)
			}
			client, builtFor = c, cfg.API
		}
		c := client
		mu.Unlock()

		return Deps{
			Client:   c,
			Metrics:  PrometheusRecorder{},
			Clock:    time.Now,
			Location: loc,
		}, OptionsFromConfig(cfg), nil
	}
}

// NewProgramationsClient is the production ClientFactory.
func NewProgramationsClient(api config.APIConfig) (Client, error) {
	c, err := programations.New(api.BaseURL, programations.Options{
		Populate:         api.Populate,
		PageSize:         api.PageSize,
		Timeout:          api.Timeout,
		UpdateRate:       api.UpdateRate,
		UpdateBurst:      api.UpdateBurst,
		BreakerThreshold: api.BreakerThreshold,
		BreakerReset:     api.BreakerReset,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
