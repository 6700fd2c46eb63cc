// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldService   = "service"
	FieldVersion   = "version"
	FieldCycleID   = "cycle_id"
	FieldRequestID = "request_id"
	FieldProgramID = "program_id"
	FieldTitle     = "title"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldTrigger   = "trigger"

	// Schedule fields
	FieldTimezone    = "timezone"
	FieldWeekday     = "weekday"
	FieldWindowStart = "window_start"
	FieldWindowEnd   = "window_end"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"
)
