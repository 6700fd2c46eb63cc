// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"time"
)

// Update modes for persisting on-air flags.
const (
	// UpdateModeDiff only touches programations whose flag changed.
	UpdateModeDiff = "diff"
	// UpdateModeReset deactivates every programation, then activates the matches.
	UpdateModeReset = "reset"
)

// AppConfig is the effective, validated configuration.
type AppConfig struct {
	API APIConfig

	// Timezone is the IANA zone in which day names and times of day are read.
	Timezone string
	// Schedule is the cron expression driving the sync cycle.
	Schedule   string
	RunOnStart bool

	UpdateMode        string
	UpdateParallelism int

	ListenAddr  string
	MetricsAddr string

	LogLevel   string
	LogService string

	Telemetry TelemetryConfig

	Version string
}

// APIConfig describes the remote programations API.
type APIConfig struct {
	BaseURL  string
	Populate string
	PageSize int
	Timeout  time.Duration

	// UpdateRate limits status updates per second (0 = unlimited).
	UpdateRate  float64
	UpdateBurst int

	// BreakerThreshold consecutive failures open the circuit (0 = disabled).
	BreakerThreshold int
	BreakerReset     time.Duration
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
	Environment  string
}

// Location resolves the configured timezone.
func (c AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "Local" {
		return nil, fmt.Errorf("load timezone %q: host zone is not allowed", c.Timezone)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// FileConfig represents the YAML configuration structure
type FileConfig struct {
	API        FileAPIConfig       `yaml:"api,omitempty"`
	Timezone   string              `yaml:"timezone,omitempty"`
	Schedule   string              `yaml:"schedule,omitempty"`
	RunOnStart *bool               `yaml:"runOnStart,omitempty"`
	Update     FileUpdateConfig    `yaml:"update,omitempty"`
	Server     FileServerConfig    `yaml:"server,omitempty"`
	LogLevel   string              `yaml:"logLevel,omitempty"`
	LogService string              `yaml:"logService,omitempty"`
	Telemetry  FileTelemetryConfig `yaml:"telemetry,omitempty"`
}

// FileAPIConfig holds the remote API section of the YAML file.
type FileAPIConfig struct {
	BaseURL          string   `yaml:"baseUrl,omitempty"`
	Populate         *string  `yaml:"populate,omitempty"`
	PageSize         int      `yaml:"pageSize,omitempty"`
	Timeout          string   `yaml:"timeout,omitempty"` // e.g. "10s"
	UpdateRate       *float64 `yaml:"updateRate,omitempty"`
	UpdateBurst      int      `yaml:"updateBurst,omitempty"`
	BreakerThreshold *int     `yaml:"breakerThreshold,omitempty"`
	BreakerReset     string   `yaml:"breakerReset,omitempty"` // e.g. "30s"
}

// FileUpdateConfig holds the update policy section of the YAML file.
type FileUpdateConfig struct {
	Mode        string `yaml:"mode,omitempty"`
	Parallelism int    `yaml:"parallelism,omitempty"`
}

// FileServerConfig holds listener addresses.
type FileServerConfig struct {
	Listen        *string `yaml:"listen,omitempty"`
	MetricsListen *string `yaml:"metricsListen,omitempty"`
}

// FileTelemetryConfig holds the tracing section of the YAML file.
type FileTelemetryConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
}
