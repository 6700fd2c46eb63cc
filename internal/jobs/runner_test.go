// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/onair/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticDeps(deps Deps) DepsFunc {
	return func() (Deps, Options, error) { return deps, DefaultOptions(), nil }
}

func TestRunner_RejectsOverlappingCycles(t *testing.T) {
	client := &fakeClient{block: make(chan struct{})}
	r := NewRunner(staticDeps(testDeps(t, client, &fakeRecorder{})))

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), TriggerSchedule)
		done <- err
	}()

	require.Eventually(t, r.Running, time.Second, 5*time.Millisecond)

	_, err := r.Run(context.Background(), TriggerManual)
	assert.ErrorIs(t, err, ErrCycleInProgress)

	close(client.block)
	require.NoError(t, <-done)
	assert.False(t, r.Running())

	_, err = r.Run(context.Background(), TriggerManual)
	assert.NoError(t, err, "runner accepts a new cycle once the previous one finished")
}

func TestRunner_LastStatus(t *testing.T) {
	r := NewRunner(staticDeps(testDeps(t, &fakeClient{records: sampleRecords()}, &fakeRecorder{})))

	_, ok := r.Last()
	assert.False(t, ok)
	lastRun, lastErr := r.LastRun()
	assert.True(t, lastRun.IsZero())
	assert.Empty(t, lastErr)

	status, err := r.Run(context.Background(), TriggerStartup)
	require.NoError(t, err)
	assert.Equal(t, TriggerStartup, status.Trigger)

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, status.CycleID, last.CycleID)

	last.Active[0] = "mutated"
	again, _ := r.Last()
	assert.Equal(t, "A", again.Active[0], "Last returns a copy")

	lastRun, lastErr = r.LastRun()
	assert.Equal(t, status.FinishedAt, lastRun)
	assert.Empty(t, lastErr)
}

func TestRunner_FetchFailureReportedToHealth(t *testing.T) {
	client := &fakeClient{fetchErr: errors.New("cms down")}
	r := NewRunner(staticDeps(testDeps(t, client, &fakeRecorder{})))

	_, err := r.Run(context.Background(), TriggerSchedule)
	require.NoError(t, err)

	lastRun, lastErr := r.LastRun()
	assert.True(t, lastRun.IsZero())
	assert.Equal(t, "cms down", lastErr)
}

func TestRunner_DepsError(t *testing.T) {
	r := NewRunner(func() (Deps, Options, error) {
		return Deps{}, Options{}, errors.New("bad timezone")
	})

	_, err := r.Run(context.Background(), TriggerSchedule)
	require.Error(t, err)
	_, lastErr := r.LastRun()
	assert.Contains(t, lastErr, "bad timezone")
}

func TestConfigDeps_RebuildsClientOnlyWhenAPIChanges(t *testing.T) {
	cfg := config.Defaults()
	var builds atomic.Int32
	factory := func(config.APIConfig) (Client, error) {
		builds.Add(1)
		return &fakeClient{}, nil
	}
	deps := ConfigDeps(func() config.AppConfig { return cfg }, factory)

	d1, opts, err := deps()
	require.NoError(t, err)
	assert.Equal(t, "America/Bogota", d1.Location.String())
	assert.Equal(t, config.UpdateModeDiff, opts.UpdateMode)

	cfg.UpdateMode = config.UpdateModeReset
	d2, opts, err := deps()
	require.NoError(t, err)
	assert.Same(t, d1.Client, d2.Client)
	assert.Equal(t, config.UpdateModeReset, opts.UpdateMode)
	assert.Equal(t, int32(1), builds.Load())

	cfg.API.PageSize = 10
	d3, _, err := deps()
	require.NoError(t, err)
	assert.NotSame(t, d1.Client, d3.Client)
	assert.Equal(t, int32(2), builds.Load())
}

func TestConfigDeps_BadTimezone(t *testing.T) {
	cfg := config.Defaults()
	cfg.Timezone = "Nowhere/Land"
	deps := ConfigDeps(func() config.AppConfig { return cfg }, NewProgramationsClient)

	_, _, err := deps()
	assert.Error(t, err)
}

func TestNewProgramationsClient(t *testing.T) {
	c, err := NewProgramationsClient(config.Defaults().API)
	require.NoError(t, err)
	assert.NotNil(t, c)

	_, err = NewProgramationsClient(config.APIConfig{BaseURL: "::not a url"})
	assert.Error(t, err)
}
