// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package schedule

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingField is returned when a programation lacks days or times.
	ErrMissingField = errors.New("schedule: required field missing")
	// ErrInvalidTime is returned when a start or end time cannot be parsed.
	ErrInvalidTime = errors.New("schedule: invalid time of day")
)

// ValidationError describes why a programation was excluded from evaluation.
type ValidationError struct {
	ProgramID string
	Fields    []string
	Err       error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("programation %q: %v", e.ProgramID, e.Err)
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(e.Fields, ", "))
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
