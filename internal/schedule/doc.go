// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package schedule decides which programations are on air at a given instant.
//
// A programation carries a free-text day expression in Spanish ("lunes a viernes",
// "sábado, domingo") and a start/end time of day. Both are interpreted in a single
// configured location, never in the host's local zone. Everything in this package is
// pure: no clocks are read and nothing is logged, so callers capture "now" once per
// cycle and pass it in.
package schedule
