// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/ManuGH/onair/internal/config"
	onairlog "github.com/ManuGH/onair/internal/log"
	"github.com/ManuGH/onair/internal/programations"
	"github.com/ManuGH/onair/internal/schedule"
	"github.com/ManuGH/onair/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/ManuGH/onair/internal/jobs"

// statusUpdate is a single flag write planned by a cycle.
type statusUpdate struct {
	ID     string
	Title  string
	Active bool
}

// Run performs one sync cycle: fetch → evaluate → update.
//
// Fetch failures degrade to an empty list and invalid programations are
// skipped; neither fails the cycle. Update failures are isolated per
// programation. The only errors returned are ErrNoClient and ErrCyclePanic.
func Run(ctx context.Context, deps Deps, opts Options) (status *Status, err error) {
	if deps.Client == nil {
		return nil, ErrNoClient
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Metrics == nil {
		deps.Metrics = noopRecorder{}
	}
	if opts.UpdateMode == "" {
		opts.UpdateMode = config.UpdateModeDiff
	}

	cycleID := onairlog.CycleIDFromContext(ctx)
	if cycleID == "" {
		cycleID = uuid.NewString()
		ctx = onairlog.ContextWithCycleID(ctx, cycleID)
	}

	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "onair.cycle")
	defer span.End()

	logger := onairlog.WithComponentFromContext(ctx, "jobs")

	// now is shared by every programation in the cycle.
	now := deps.Clock()
	evalCtx := schedule.NewContext(now, deps.Location)

	status = &Status{
		CycleID:    cycleID,
		Trigger:    opts.Trigger,
		StartedAt:  now,
		Timezone:   deps.Location.String(),
		Weekday:    evalCtx.Weekday(),
		UpdateMode: opts.UpdateMode,
		Active:     []string{},
	}
	span.SetAttributes(telemetry.CycleAttributes(cycleID, opts.Trigger, status.Weekday, opts.UpdateMode)...)

	defer func() {
		if r := recover(); r != nil {
			status.Error = fmt.Sprintf("panic: %v", r)
			err = fmt.Errorf("%w: %v", ErrCyclePanic, r)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			logger.Error().
				Str(onairlog.FieldEvent, "cycle.panic").
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("sync cycle panicked")
		}
		finish(status, deps)
	}()

	logger.Info().
		Str(onairlog.FieldEvent, "cycle.start").
		Str(onairlog.FieldTrigger, opts.Trigger).
		Str(onairlog.FieldTimezone, status.Timezone).
		Str(onairlog.FieldWeekday, status.Weekday).
		Msg("starting sync cycle")

	records, fetchErr := deps.Client.Fetch(ctx)
	if fetchErr != nil {
		deps.Metrics.IncFetchFailure()
		status.FetchError = fetchErr.Error()
		span.RecordError(fetchErr)
		logger.Warn().
			Err(fetchErr).
			Str(onairlog.FieldEvent, "fetch.failed").
			Msg("fetching programations failed, continuing with an empty list")
		records = nil
	}
	status.Fetched = len(records)

	programs, undecodable := programations.Programs(records)
	for _, r := range undecodable {
		status.Invalid++
		logger.Warn().
			Err(r.DecodeErr).
			Str(onairlog.FieldEvent, "program.decode_failed").
			Str(onairlog.FieldProgramID, r.Key()).
			Str(onairlog.FieldTitle, r.Title).
			Msg("skipping undecodable programation")
	}

	results := schedule.Evaluate(programs, evalCtx)
	for _, r := range results {
		if r.Err != nil {
			status.Invalid++
			logInvalid(logger, r)
			continue
		}
		if r.DayMatched && r.Window.Empty() {
			logger.Debug().
				Str(onairlog.FieldEvent, "program.empty_window").
				Str(onairlog.FieldProgramID, r.Program.ID).
				Str(onairlog.FieldTitle, r.Program.Title).
				Time(onairlog.FieldWindowStart, r.Window.Start).
				Time(onairlog.FieldWindowEnd, r.Window.End).
				Msg("window ends before it starts, programation is never on air")
			continue
		}
		if r.Active {
			logger.Info().
				Str(onairlog.FieldEvent, "program.on_air").
				Str(onairlog.FieldProgramID, r.Program.ID).
				Str(onairlog.FieldTitle, r.Program.Title).
				Time(onairlog.FieldWindowStart, r.Window.Start).
				Time(onairlog.FieldWindowEnd, r.Window.End).
				Msg("programation is on air")
		}
	}

	status.Active = schedule.ActiveIDs(results)

	for _, phase := range planUpdates(results, opts.UpdateMode) {
		updated, failed := applyUpdates(ctx, deps, phase, opts.Parallelism)
		status.Updated += updated
		status.UpdateFailures += failed
	}

	span.SetAttributes(telemetry.CycleResultAttributes(
		status.Fetched, status.Invalid, len(status.Active), status.Updated, status.UpdateFailures)...)

	logger.Info().
		Str(onairlog.FieldEvent, "cycle.finish").
		Int("fetched", status.Fetched).
		Int("invalid", status.Invalid).
		Int("active", len(status.Active)).
		Int("updated", status.Updated).
		Int("update_failures", status.UpdateFailures).
		Msg("sync cycle finished")

	return status, nil
}

func finish(status *Status, deps Deps) {
	status.FinishedAt = deps.Clock()
	d := status.FinishedAt.Sub(status.StartedAt)
	status.DurationMS = d.Milliseconds()
	deps.Metrics.SetProgramationCounts(status.Fetched, len(status.Active), status.Invalid)
	deps.Metrics.RecordCycle(status.Outcome(), d)
}

func logInvalid(logger zerolog.Logger, r schedule.Result) {
	ev := logger.Warn().
		Err(r.Err).
		Str(onairlog.FieldEvent, "program.invalid").
		Str(onairlog.FieldProgramID, r.Program.ID).
		Str(onairlog.FieldTitle, r.Program.Title)
	var verr *schedule.ValidationError
	if errors.As(r.Err, &verr) {
		ev = ev.Strs("fields", verr.Fields)
	}
	ev.Msg("skipping invalid programation")
}

// planUpdates returns the update phases for a cycle. Phases run in order;
// updates within a phase may run concurrently. Invalid results never produce
// an update.
func planUpdates(results []schedule.Result, mode string) [][]statusUpdate {
	if mode == config.UpdateModeReset {
		var off, on []statusUpdate
		for _, r := range results {
			if r.Err != nil {
				continue
			}
			off = append(off, statusUpdate{ID: r.Program.ID, Title: r.Program.Title, Active: false})
			if r.Active {
				on = append(on, statusUpdate{ID: r.Program.ID, Title: r.Program.Title, Active: true})
			}
		}
		return [][]statusUpdate{off, on}
	}

	var changed []statusUpdate
	for _, r := range results {
		if r.Changed() {
			changed = append(changed, statusUpdate{ID: r.Program.ID, Title: r.Program.Title, Active: r.Active})
		}
	}
	return [][]statusUpdate{changed}
}

// applyUpdates writes a phase with bounded concurrency. A failed or panicking
// update never affects the others.
func applyUpdates(ctx context.Context, deps Deps, phase []statusUpdate, parallelism int) (updated, failed int) {
	if len(phase) == 0 {
		return 0, 0
	}
	if parallelism <= 0 {
		parallelism = 1
	}

	var ok, bad atomic.Int64
	var g errgroup.Group
	g.SetLimit(parallelism)

	for _, u := range phase {
		g.Go(func() error {
			if err := updateOne(ctx, deps, u); err != nil {
				bad.Add(1)
			} else {
				ok.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(ok.Load()), int(bad.Load())
}

func updateOne(ctx context.Context, deps Deps, u statusUpdate) (err error) {
	logger := onairlog.WithComponentFromContext(ctx, "jobs").With().
		Str(onairlog.FieldProgramID, u.ID).
		Str(onairlog.FieldTitle, u.Title).
		Bool(onairlog.FieldNewState, u.Active).
		Logger()

	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "onair.update")
	defer span.End()
	span.SetAttributes(telemetry.UpdateAttributes(u.ID, u.Active)...)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: update %s: %v", ErrCyclePanic, u.ID, r)
		}
		deps.Metrics.RecordStatusUpdate(u.Active, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "update failed")
			logger.Error().
				Err(err).
				Str(onairlog.FieldEvent, "program.update_failed").
				Msg("failed to update programation status")
			return
		}
		logger.Debug().
			Str(onairlog.FieldEvent, "program.updated").
			Msg("programation status updated")
	}()

	return deps.Client.Update(ctx, u.ID, u.Active)
}
