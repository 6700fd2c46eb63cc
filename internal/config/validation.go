// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"time"

	"github.com/ManuGH/onair/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.URL("API.BaseURL", cfg.API.BaseURL, []string{"http", "https"})
	v.Range("API.PageSize", cfg.API.PageSize, 1, 1000)
	v.MinDuration("API.Timeout", cfg.API.Timeout, 100*time.Millisecond)
	if cfg.API.UpdateRate < 0 {
		v.AddError("API.UpdateRate", "must not be negative", cfg.API.UpdateRate)
	}
	if cfg.API.UpdateRate > 0 {
		v.Positive("API.UpdateBurst", cfg.API.UpdateBurst)
	}
	v.Range("API.BreakerThreshold", cfg.API.BreakerThreshold, 0, 100)
	if cfg.API.BreakerThreshold > 0 {
		v.MinDuration("API.BreakerReset", cfg.API.BreakerReset, time.Second)
	}

	v.Timezone("Timezone", cfg.Timezone)
	v.CronSpec("Schedule", cfg.Schedule)
	v.OneOf("UpdateMode", cfg.UpdateMode, []string{UpdateModeDiff, UpdateModeReset})
	v.Range("UpdateParallelism", cfg.UpdateParallelism, 1, 32)

	v.ListenAddr("ListenAddr", cfg.ListenAddr)
	v.ListenAddr("MetricsAddr", cfg.MetricsAddr)

	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("LogLevel", "must be one of debug, info, warn, error", cfg.LogLevel)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
			v.AddError("Telemetry.SamplingRate", "must be between 0 and 1", cfg.Telemetry.SamplingRate)
		}
	}

	return v.Err()
}
