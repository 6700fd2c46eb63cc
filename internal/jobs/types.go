// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/ManuGH/onair/internal/config"
	"github.com/ManuGH/onair/internal/metrics"
	"github.com/ManuGH/onair/internal/programations"
	"github.com/ManuGH/onair/internal/scheduler"
)

var (
	// ErrCycleInProgress is returned when a cycle is requested while one runs.
	ErrCycleInProgress = errors.New("sync cycle already in progress")
	// ErrCyclePanic marks a cycle aborted by a recovered panic.
	ErrCyclePanic = errors.New("sync cycle panicked")
	// ErrNoClient is returned when Deps carries no API client.
	ErrNoClient = errors.New("no programations client configured")
)

// Triggers recorded on the cycle status.
const (
	TriggerSchedule = scheduler.TriggerSchedule
	TriggerStartup  = scheduler.TriggerStartup
	TriggerManual   = "manual"
	TriggerOnce     = "once"
)

// Client is the programations API as seen by a cycle.
type Client interface {
	Fetch(ctx context.Context) ([]programations.Record, error)
	Update(ctx context.Context, id string, active bool) error
}

// MetricsRecorder defines the interface for recording metrics
type MetricsRecorder interface {
	SetProgramationCounts(fetched, active, invalid int)
	RecordStatusUpdate(active bool, err error)
	IncFetchFailure()
	RecordCycle(outcome string, d time.Duration)
}

// PrometheusRecorder forwards to the process-wide Prometheus collectors.
type PrometheusRecorder struct{}

func (PrometheusRecorder) SetProgramationCounts(fetched, active, invalid int) {
	metrics.SetProgramationCounts(fetched, active, invalid)
}
func (PrometheusRecorder) RecordStatusUpdate(active bool, err error) {
	metrics.RecordStatusUpdate(active, err)
}
func (PrometheusRecorder) IncFetchFailure() { metrics.IncFetchFailure() }
func (PrometheusRecorder) RecordCycle(outcome string, d time.Duration) {
	metrics.RecordCycle(outcome, d)
}

type noopRecorder struct{}

func (noopRecorder) SetProgramationCounts(int, int, int) {}
func (noopRecorder) RecordStatusUpdate(bool, error)      {}
func (noopRecorder) IncFetchFailure()                    {}
func (noopRecorder) RecordCycle(string, time.Duration)   {}

// Options controls how a cycle persists its verdicts.
type Options struct {
	UpdateMode  string // config.UpdateModeDiff or config.UpdateModeReset
	Parallelism int    // Max concurrent updates (<=0 = 1)
	Trigger     string
}

// Deps holds all dependencies for a cycle.
type Deps struct {
	Client   Client
	Metrics  MetricsRecorder
	Clock    func() time.Time
	Location *time.Location
}

// DefaultOptions returns sensible default options
func DefaultOptions() Options {
	return Options{
		UpdateMode:  config.UpdateModeDiff,
		Parallelism: config.DefaultUpdateParallelism,
		Trigger:     TriggerSchedule,
	}
}

// OptionsFromConfig creates options from config
func OptionsFromConfig(cfg config.AppConfig) Options {
	return Options{
		UpdateMode:  cfg.UpdateMode,
		Parallelism: cfg.UpdateParallelism,
		Trigger:     TriggerSchedule,
	}
}

// Status summarises one cycle.
type Status struct {
	CycleID    string    `json:"cycle_id"`
	Trigger    string    `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
	Timezone   string    `json:"timezone"`
	Weekday    string    `json:"weekday"`
	UpdateMode string    `json:"update_mode"`

	Fetched        int      `json:"fetched"`
	Invalid        int      `json:"invalid"`
	Active         []string `json:"active"`
	Updated        int      `json:"updated"`
	UpdateFailures int      `json:"update_failures"`

	FetchError string `json:"fetch_error,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Outcome classifies the cycle for metrics and health.
func (s *Status) Outcome() string {
	switch {
	case s.Error != "":
		return metrics.CyclePanic
	case s.FetchError != "" || s.UpdateFailures > 0:
		return metrics.CycleDegraded
	default:
		return metrics.CycleSuccess
	}
}
