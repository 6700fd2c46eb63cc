// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads and validates onair configuration.
//
// Precedence is ENV > YAML file > defaults. The YAML file is decoded strictly:
// unknown keys are rejected so that typos do not silently fall back to defaults.
package config
