// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package scheduler fires the sync cycle on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	onairlog "github.com/ManuGH/onair/internal/log"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Triggers passed to the job.
const (
	TriggerSchedule = "schedule"
	TriggerStartup  = "startup"
)

// ErrNotStarted is returned by Stop on a scheduler that never started.
var ErrNotStarted = errors.New("scheduler not started")

// Job is the work fired on every tick.
type Job func(ctx context.Context, trigger string)

// Config describes when the job fires.
type Config struct {
	// Spec is a standard 5-field cron expression or descriptor (@hourly, @every 5m).
	Spec string
	// Location is the zone the spec is evaluated in (nil = UTC).
	Location *time.Location
	// RunOnStart fires the job once immediately after Start.
	RunOnStart bool
}

// Scheduler wraps a cron runner with a single entry.
type Scheduler struct {
	cfg    Config
	job    Job
	cron   *cron.Cron
	entry  cron.EntryID
	logger zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

// New validates the spec and prepares a scheduler. Overlapping ticks are
// skipped and panics inside the job are recovered.
func New(cfg Config, job Job) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("scheduler: nil job")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if _, err := cron.ParseStandard(cfg.Spec); err != nil {
		return nil, fmt.Errorf("scheduler: invalid spec %q: %w", cfg.Spec, err)
	}

	logger := onairlog.WithComponent("scheduler")
	cl := cronLogger{logger: logger}

	s := &Scheduler{
		cfg:    cfg,
		job:    job,
		logger: logger,
		ctx:    context.Background(),
	}
	s.cron = cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithLogger(cl),
		// Recover sits inside SkipIfStillRunning so a panic releases the slot.
		cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
	)

	id, err := s.cron.AddFunc(cfg.Spec, func() {
		s.job(s.jobContext(), TriggerSchedule)
	})
	if err != nil {
		return nil, fmt.Errorf("scheduler: add job: %w", err)
	}
	s.entry = id
	return s, nil
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// Start begins firing the job. The job context is derived from ctx and is
// cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
	jobCtx := s.ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info().
		Str(onairlog.FieldEvent, "scheduler.started").
		Str("spec", s.cfg.Spec).
		Str(onairlog.FieldTimezone, s.cfg.Location.String()).
		Time("next_run", s.Next()).
		Msg("scheduler started")

	if s.cfg.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error().
						Str(onairlog.FieldEvent, "scheduler.panic").
						Interface("panic", r).
						Msg("startup run panicked")
				}
			}()
			s.job(jobCtx, TriggerStartup)
		}()
	}
}

// Stop cancels the job context and waits for a running job to return or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Str(onairlog.FieldEvent, "scheduler.stopped").Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: stop: %w", ctx.Err())
	}
}

// Next returns the next scheduled fire time, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Interval returns the gap between the next two activations of spec after
// from, evaluated in loc.
func Interval(spec string, loc *time.Location, from time.Time) (time.Duration, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return 0, fmt.Errorf("scheduler: invalid spec %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	first := sched.Next(from.In(loc))
	if first.IsZero() {
		return 0, fmt.Errorf("scheduler: spec %q never fires", spec)
	}
	return sched.Next(first).Sub(first), nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().
		Fields(keysAndValues).
		Str(onairlog.FieldEvent, "scheduler."+msg).
		Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().
		Err(err).
		Fields(keysAndValues).
		Str(onairlog.FieldEvent, "scheduler.error").
		Msg(msg)
}
