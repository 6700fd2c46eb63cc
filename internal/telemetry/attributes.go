// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by cycle and update spans.
const (
	CycleIDKey      = "onair.cycle_id"
	TriggerKey      = "onair.trigger"
	WeekdayKey      = "onair.weekday"
	UpdateModeKey   = "onair.update_mode"
	ProgramIDKey    = "onair.program_id"
	ActiveKey       = "onair.active"
	FetchedKey      = "onair.fetched"
	InvalidKey      = "onair.invalid"
	ActiveCountKey  = "onair.active_count"
	UpdatedKey      = "onair.updated"
	UpdateFailedKey = "onair.update_failures"
)

// CycleAttributes describes a starting sync cycle.
func CycleAttributes(cycleID, trigger, weekday, mode string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(CycleIDKey, cycleID),
		attribute.String(TriggerKey, trigger),
		attribute.String(WeekdayKey, weekday),
		attribute.String(UpdateModeKey, mode),
	}
}

// CycleResultAttributes describes the counts of a finished cycle.
func CycleResultAttributes(fetched, invalid, active, updated, failed int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(FetchedKey, fetched),
		attribute.Int(InvalidKey, invalid),
		attribute.Int(ActiveCountKey, active),
		attribute.Int(UpdatedKey, updated),
		attribute.Int(UpdateFailedKey, failed),
	}
}

// UpdateAttributes describes a single status update.
func UpdateAttributes(programID string, active bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ProgramIDKey, programID),
		attribute.Bool(ActiveKey, active),
	}
}
