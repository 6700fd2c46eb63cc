// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package schedule

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// weekdays is indexed by time.Weekday (Sunday = 0).
var weekdays = [7]string{
	"domingo",
	"lunes",
	"martes",
	"miércoles",
	"jueves",
	"viernes",
	"sábado",
}

// DayName returns the lowercase Spanish weekday name of t as observed in loc.
func DayName(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return weekdays[t.In(loc).Weekday()]
}

// dayIndex resolves a Spanish weekday name to its position in the week
// (domingo = 0). Unknown names return -1.
func dayIndex(name string) int {
	name = normalize(name)
	for i, d := range weekdays {
		if d == name {
			return i
		}
	}
	return -1
}

// normalize folds s for comparison: NFC composition so that decomposed accents
// match the table above, Spanish lowercasing, surrounding whitespace removed.
// A Caser is stateful, so one is built per call.
func normalize(s string) string {
	s = norm.NFC.String(s)
	s = cases.Lower(language.Spanish).String(s)
	return strings.TrimSpace(s)
}
