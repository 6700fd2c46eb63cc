// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package schedule

import "strings"

// rangeSeparator is the Spanish "to" in "lunes a viernes".
const rangeSeparator = "a"

// MatchesDay reports whether the day expression covers dayName.
//
// Two forms are recognised, case and whitespace insensitive:
//   - enumeration: the expression contains dayName anywhere ("sábado, domingo").
//   - range: "<start> a <end>", inclusive, Sunday-first week, no wraparound.
//
// A range whose endpoints do not resolve to weekday names never matches.
func MatchesDay(expression, dayName string) bool {
	expr := normalize(expression)
	day := normalize(dayName)
	if expr == "" || day == "" {
		return false
	}

	// Substring on purpose: noisy input like "lunes,martes y jueves" must match.
	if strings.Contains(expr, day) {
		return true
	}

	start, end, ok := splitRange(expr)
	if !ok {
		return false
	}

	from, to, today := dayIndex(start), dayIndex(end), dayIndex(day)
	if from < 0 || to < 0 || today < 0 {
		return false
	}
	return from <= today && today <= to
}

// splitRange splits "<start> a <end>" on the standalone separator token.
// Expressions with zero or several separators are not ranges.
func splitRange(expr string) (string, string, bool) {
	fields := strings.Fields(expr)
	sep := -1
	for i, f := range fields {
		if f != rangeSeparator {
			continue
		}
		if sep >= 0 {
			return "", "", false
		}
		sep = i
	}
	if sep <= 0 || sep == len(fields)-1 {
		return "", "", false
	}

	start := strings.Trim(strings.Join(fields[:sep], " "), ".,;")
	end := strings.Trim(strings.Join(fields[sep+1:], " "), ".,;")
	return start, end, true
}
