// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package schedule

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date or zone.
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// Time parsing also accepts a trailing fraction ("08:00:00.000"), which is how
// the upstream API serialises its time fields.
var timeLayouts = []string{"15:04:05", "15:04"}

// ParseTimeOfDay parses "HH:mm", "HH:mm:ss" or "HH:mm:ss.fff".
// "24:00" and "24:00:00" denote the end of the day.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeOfDay{}, fmt.Errorf("%w: empty", ErrInvalidTime)
	}
	if s == "24:00" || s == "24:00:00" {
		return TimeOfDay{Hour: 24}, nil
	}
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return TimeOfDay{
			Hour:       t.Hour(),
			Minute:     t.Minute(),
			Second:     t.Second(),
			Nanosecond: t.Nanosecond(),
		}, nil
	}
	return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// On anchors the time of day to the calendar date of day as observed in loc.
// Hour 24 rolls over to the following midnight.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := day.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, t.Second, t.Nanosecond, loc)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}
