// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package schedule

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func evaluateOne(p Program, ctx Context) Result {
	return Evaluate([]Program{p}, ctx)[0]
}

func morningShow() Program {
	return Program{
		ID:         "doc-morning",
		Title:      "Mañanas",
		ActiveDays: "Lunes a Viernes",
		StartTime:  "08:00:00",
		EndTime:    "09:00:00",
	}
}

func TestEvaluate_WindowBoundaries(t *testing.T) {
	bogota := mustLoad(t, "America/Bogota")
	// 2024-01-17 is a Wednesday.
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before start", now: time.Date(2024, 1, 17, 7, 59, 59, 0, bogota), want: false},
		{name: "start inclusive", now: time.Date(2024, 1, 17, 8, 0, 0, 0, bogota), want: true},
		{name: "inside", now: time.Date(2024, 1, 17, 8, 30, 0, 0, bogota), want: true},
		{name: "last nanosecond", now: time.Date(2024, 1, 17, 8, 59, 59, 999999999, bogota), want: true},
		{name: "end exclusive", now: time.Date(2024, 1, 17, 9, 0, 0, 0, bogota), want: false},
		{name: "wrong day", now: time.Date(2024, 1, 20, 8, 30, 0, 0, bogota), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := evaluateOne(morningShow(), NewContext(tt.now, bogota))
			require.NoError(t, res.Err)
			assert.Equal(t, tt.want, res.Active)
		})
	}
}

func TestEvaluate_HostZoneIndependence(t *testing.T) {
	bogota := mustLoad(t, "America/Bogota")
	tokyo := mustLoad(t, "Asia/Tokyo")

	programs := []Program{
		{ID: "sunday-night", ActiveDays: "domingo", StartTime: "21:00", EndTime: "22:00"},
		{ID: "monday-early", ActiveDays: "lunes", StartTime: "02:00", EndTime: "03:00"},
	}

	// Same instant, expressed in three different zones: the verdict must only
	// depend on Bogotá's calendar.
	instant := time.Date(2024, 1, 15, 2, 30, 0, 0, time.UTC)
	for _, now := range []time.Time{instant, instant.In(tokyo), instant.In(bogota)} {
		results := Evaluate(programs, NewContext(now, bogota))
		require.Len(t, results, 2)
		assert.True(t, results[0].Active, "sunday 21:30 Bogotá should be on air (now=%s)", now)
		assert.False(t, results[1].Active, "monday 02:30 UTC is not monday in Bogotá (now=%s)", now)
	}
}

func TestEvaluate_InvalidRecordsAreExcluded(t *testing.T) {
	bogota := mustLoad(t, "America/Bogota")
	now := time.Date(2024, 1, 17, 8, 30, 0, 0, bogota)

	noEnd := morningShow()
	noEnd.ID = "no-end"
	noEnd.EndTime = ""

	noDays := morningShow()
	noDays.ID = "no-days"
	noDays.ActiveDays = "  "
	noDays.StartTime = ""

	badStart := morningShow()
	badStart.ID = "bad-start"
	badStart.StartTime = "ocho"

	results := Evaluate([]Program{noEnd, morningShow(), noDays, badStart}, NewContext(now, bogota))
	require.Len(t, results, 4)

	var verr *ValidationError

	require.Error(t, results[0].Err)
	assert.ErrorIs(t, results[0].Err, ErrMissingField)
	require.True(t, errors.As(results[0].Err, &verr))
	assert.Equal(t, []string{"endTime"}, verr.Fields)
	assert.False(t, results[0].Active)

	assert.NoError(t, results[1].Err)
	assert.True(t, results[1].Active)

	require.True(t, errors.As(results[2].Err, &verr))
	assert.Equal(t, []string{"activeDays", "startTime"}, verr.Fields)
	assert.Contains(t, verr.Error(), "no-days")

	assert.ErrorIs(t, results[3].Err, ErrInvalidTime)
	assert.False(t, results[3].Changed())
}

func TestEvaluate_OverlappingWindowsBothActive(t *testing.T) {
	bogota := mustLoad(t, "America/Bogota")
	now := time.Date(2024, 1, 17, 8, 30, 0, 0, bogota)

	other := morningShow()
	other.ID = "doc-news"
	other.ActiveDays = "miércoles"
	other.StartTime = "08:15"
	other.EndTime = "10:00"

	results := Evaluate([]Program{morningShow(), other}, NewContext(now, bogota))
	assert.Equal(t, []string{"doc-morning", "doc-news"}, ActiveIDs(results))

	none := ActiveIDs(Evaluate(nil, NewContext(now, bogota)))
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestEvaluate_OvernightWindowIsNeverActive(t *testing.T) {
	bogota := mustLoad(t, "America/Bogota")
	p := Program{ID: "late", ActiveDays: "lunes a domingo", StartTime: "22:00", EndTime: "02:00"}

	for _, now := range []time.Time{
		time.Date(2024, 1, 17, 23, 0, 0, 0, bogota),
		time.Date(2024, 1, 17, 1, 0, 0, 0, bogota),
	} {
		res := evaluateOne(p, NewContext(now, bogota))
		require.NoError(t, res.Err)
		assert.True(t, res.Window.Empty())
		assert.False(t, res.Active)
	}
}

func TestEvaluate_EndOfDay(t *testing.T) {
	bogota := mustLoad(t, "America/Bogota")
	p := Program{ID: "closing", ActiveDays: "miércoles", StartTime: "23:00", EndTime: "24:00"}

	res := evaluateOne(p, NewContext(time.Date(2024, 1, 17, 23, 59, 0, 0, bogota), bogota))
	require.NoError(t, res.Err)
	assert.True(t, res.Active)
}

func TestEvaluate_IsPure(t *testing.T) {
	bogota := mustLoad(t, "America/Bogota")
	now := time.Date(2024, 1, 17, 8, 30, 0, 0, bogota)
	programs := []Program{
		morningShow(),
		{ID: "weekend", ActiveDays: "sábado, domingo", StartTime: "10:00", EndTime: "12:00"},
		{ID: "broken", ActiveDays: "lunes"},
	}
	ctx := NewContext(now, bogota)

	first := Evaluate(programs, ctx)
	second := Evaluate(programs, ctx)

	opts := cmp.Comparer(func(a, b error) bool {
		if a == nil || b == nil {
			return a == nil && b == nil
		}
		return a.Error() == b.Error()
	})
	if diff := cmp.Diff(first, second, opts); diff != "" {
		t.Fatalf("Evaluate is not deterministic (-first +second):\n%s", diff)
	}
}

func TestEvaluate_Empty(t *testing.T) {
	results := Evaluate(nil, NewContext(time.Now(), nil))
	assert.Empty(t, results)
}

func TestResult_Changed(t *testing.T) {
	bogota := mustLoad(t, "America/Bogota")
	now := time.Date(2024, 1, 17, 8, 30, 0, 0, bogota)

	alreadyOn := morningShow()
	alreadyOn.Active = true
	assert.False(t, evaluateOne(alreadyOn, NewContext(now, bogota)).Changed())

	assert.True(t, evaluateOne(morningShow(), NewContext(now, bogota)).Changed())

	stale := morningShow()
	stale.Active = true
	assert.True(t, evaluateOne(stale, NewContext(now.Add(2*time.Hour), bogota)).Changed())
}
