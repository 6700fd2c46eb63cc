// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api implements the operator HTTP surface: probes, the last cycle
// status and the manual sync trigger.
package api
