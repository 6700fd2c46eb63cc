// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package schedule

import (
	"strings"
	"time"
)

// Program is the part of a programation the evaluator looks at.
type Program struct {
	ID         string
	Title      string
	ActiveDays string
	StartTime  string
	EndTime    string
	// Active is the last-known on-air flag as reported upstream.
	Active bool
}

// Context is the instant and location a whole cycle is judged against.
type Context struct {
	Now      time.Time
	Location *time.Location
}

// NewContext pins now to loc. A nil loc means UTC.
func NewContext(now time.Time, loc *time.Location) Context {
	if loc == nil {
		loc = time.UTC
	}
	return Context{Now: now.In(loc), Location: loc}
}

// Weekday returns the Spanish weekday name of the context instant.
func (c Context) Weekday() string {
	return DayName(c.Now, c.Location)
}

// Window is a half-open [Start, End) interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Empty reports whether the window can never contain an instant. Windows that
// cross midnight (end before start) are empty: they are not split across days.
func (w Window) Empty() bool {
	return !w.End.After(w.Start)
}

// Result is the verdict for a single programation.
type Result struct {
	Program    Program
	Active     bool
	DayMatched bool
	Window     Window
	// Err is set when the programation was excluded; no status change must be
	// issued for it.
	Err error
}

// Changed reports whether a valid result differs from the last-known state.
func (r Result) Changed() bool {
	return r.Err == nil && r.Active != r.Program.Active
}

// Evaluate classifies every programation against ctx. The output has the same
// length and order as the input.
func Evaluate(programs []Program, ctx Context) []Result {
	if ctx.Location == nil {
		ctx = NewContext(ctx.Now, nil)
	}
	day := ctx.Weekday()

	results := make([]Result, 0, len(programs))
	for _, p := range programs {
		results = append(results, evaluate(p, ctx, day))
	}
	return results
}

func evaluate(p Program, ctx Context, day string) Result {
	res := Result{Program: p}

	if err := validate(p); err != nil {
		res.Err = err
		return res
	}

	start, err := ParseTimeOfDay(p.StartTime)
	if err != nil {
		res.Err = &ValidationError{ProgramID: p.ID, Fields: []string{"startTime"}, Err: err}
		return res
	}
	end, err := ParseTimeOfDay(p.EndTime)
	if err != nil {
		res.Err = &ValidationError{ProgramID: p.ID, Fields: []string{"endTime"}, Err: err}
		return res
	}

	res.Window = Window{
		Start: start.On(ctx.Now, ctx.Location),
		End:   end.On(ctx.Now, ctx.Location),
	}

	if !MatchesDay(p.ActiveDays, day) {
		return res
	}
	res.DayMatched = true
	res.Active = res.Window.Contains(ctx.Now)
	return res
}

func validate(p Program) error {
	var missing []string
	if strings.TrimSpace(p.ActiveDays) == "" {
		missing = append(missing, "activeDays")
	}
	if strings.TrimSpace(p.StartTime) == "" {
		missing = append(missing, "startTime")
	}
	if strings.TrimSpace(p.EndTime) == "" {
		missing = append(missing, "endTime")
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{ProgramID: p.ID, Fields: missing, Err: ErrMissingField}
}

// ActiveIDs returns the IDs of the active results, in input order. The slice
// is never nil.
func ActiveIDs(results []Result) []string {
	ids := []string{}
	for _, r := range results {
		if r.Active {
			ids = append(ids, r.Program.ID)
		}
	}
	return ids
}
