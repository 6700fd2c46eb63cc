// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults mirror the historical deployment.
const (
	DefaultBaseURL           = "https://dev.radioesperanza1140.com/api/programations"
	DefaultPopulate          = "imagen"
	DefaultPageSize          = 100
	DefaultTimeout           = 15 * time.Second
	DefaultUpdateRate        = 10.0
	DefaultUpdateBurst       = 5
	DefaultBreakerThreshold  = 5
	DefaultBreakerReset      = 30 * time.Second
	DefaultTimezone          = "America/Bogota"
	DefaultSchedule          = "*/1 * * * *"
	DefaultUpdateParallelism = 4
	DefaultListenAddr        = ":8080"
	DefaultMetricsAddr       = ":9090"
)

// Environment variable names.
const (
	EnvBaseURL           = "ONAIR_API_URL"
	EnvPopulate          = "ONAIR_API_POPULATE"
	EnvPageSize          = "ONAIR_API_PAGE_SIZE"
	EnvTimeout           = "ONAIR_API_TIMEOUT"
	EnvUpdateRate        = "ONAIR_API_UPDATE_RATE"
	EnvUpdateBurst       = "ONAIR_API_UPDATE_BURST"
	EnvBreakerThreshold  = "ONAIR_API_BREAKER_THRESHOLD"
	EnvBreakerReset      = "ONAIR_API_BREAKER_RESET"
	EnvTimezone          = "ONAIR_TIMEZONE"
	EnvSchedule          = "ONAIR_SCHEDULE"
	EnvRunOnStart        = "ONAIR_RUN_ON_START"
	EnvUpdateMode        = "ONAIR_UPDATE_MODE"
	EnvUpdateParallelism = "ONAIR_UPDATE_PARALLELISM"
	EnvListenAddr        = "ONAIR_LISTEN"
	EnvMetricsAddr       = "ONAIR_METRICS_LISTEN"
	EnvLogLevel          = "ONAIR_LOG_LEVEL"
	EnvLogService        = "ONAIR_LOG_SERVICE"
	EnvTelemetryEnabled  = "ONAIR_TELEMETRY_ENABLED"
	EnvTelemetryExporter = "ONAIR_TELEMETRY_EXPORTER"
	EnvTelemetryEndpoint = "ONAIR_TELEMETRY_ENDPOINT"
	EnvTelemetrySampling = "ONAIR_TELEMETRY_SAMPLING"
	EnvEnvironment       = "ONAIR_ENVIRONMENT"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		version:    version,
	}
}

// Path returns the config file path (may be empty).
func (l *Loader) Path() string {
	return l.configPath
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		API: APIConfig{
			BaseURL:          DefaultBaseURL,
			Populate:         DefaultPopulate,
			PageSize:         DefaultPageSize,
			Timeout:          DefaultTimeout,
			UpdateRate:       DefaultUpdateRate,
			UpdateBurst:      DefaultUpdateBurst,
			BreakerThreshold: DefaultBreakerThreshold,
			BreakerReset:     DefaultBreakerReset,
		},
		Timezone:          DefaultTimezone,
		Schedule:          DefaultSchedule,
		RunOnStart:        true,
		UpdateMode:        UpdateModeDiff,
		UpdateParallelism: DefaultUpdateParallelism,
		ListenAddr:        DefaultListenAddr,
		MetricsAddr:       DefaultMetricsAddr,
		LogLevel:          "info",
		LogService:        "onair",
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}

// Load loads configuration with precedence: ENV > File > Defaults
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	mergeEnvConfig(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFileConfig(dst *AppConfig, src *FileConfig) error {
	if src.API.BaseURL != "" {
		dst.API.BaseURL = expandEnv(src.API.BaseURL)
	}
	if src.API.Populate != nil {
		dst.API.Populate = *src.API.Populate
	}
	if src.API.PageSize != 0 {
		dst.API.PageSize = src.API.PageSize
	}
	if src.API.Timeout != "" {
		d, err := time.ParseDuration(src.API.Timeout)
		if err != nil {
			return fmt.Errorf("api.timeout: %w", err)
		}
		dst.API.Timeout = d
	}
	if src.API.UpdateRate != nil {
		dst.API.UpdateRate = *src.API.UpdateRate
	}
	if src.API.UpdateBurst != 0 {
		dst.API.UpdateBurst = src.API.UpdateBurst
	}
	if src.API.BreakerThreshold != nil {
		dst.API.BreakerThreshold = *src.API.BreakerThreshold
	}
	if src.API.BreakerReset != "" {
		d, err := time.ParseDuration(src.API.BreakerReset)
		if err != nil {
			return fmt.Errorf("api.breakerReset: %w", err)
		}
		dst.API.BreakerReset = d
	}

	if src.Timezone != "" {
		dst.Timezone = src.Timezone
	}
	if src.Schedule != "" {
		dst.Schedule = src.Schedule
	}
	if src.RunOnStart != nil {
		dst.RunOnStart = *src.RunOnStart
	}
	if src.Update.Mode != "" {
		dst.UpdateMode = src.Update.Mode
	}
	if src.Update.Parallelism != 0 {
		dst.UpdateParallelism = src.Update.Parallelism
	}
	if src.Server.Listen != nil {
		dst.ListenAddr = *src.Server.Listen
	}
	if src.Server.MetricsListen != nil {
		dst.MetricsAddr = *src.Server.MetricsListen
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.LogService != "" {
		dst.LogService = src.LogService
	}

	if src.Telemetry.Enabled != nil {
		dst.Telemetry.Enabled = *src.Telemetry.Enabled
	}
	if src.Telemetry.Exporter != "" {
		dst.Telemetry.Exporter = src.Telemetry.Exporter
	}
	if src.Telemetry.Endpoint != "" {
		dst.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
	if src.Telemetry.SamplingRate != nil {
		dst.Telemetry.SamplingRate = *src.Telemetry.SamplingRate
	}
	if src.Telemetry.Environment != "" {
		dst.Telemetry.Environment = src.Telemetry.Environment
	}
	return nil
}

func mergeEnvConfig(cfg *AppConfig) {
	cfg.API.BaseURL = ParseString(EnvBaseURL, cfg.API.BaseURL)
	cfg.API.Populate = ParseString(EnvPopulate, cfg.API.Populate)
	cfg.API.PageSize = ParseInt(EnvPageSize, cfg.API.PageSize)
	cfg.API.Timeout = ParseDuration(EnvTimeout, cfg.API.Timeout)
	cfg.API.UpdateRate = ParseFloat(EnvUpdateRate, cfg.API.UpdateRate)
	cfg.API.UpdateBurst = ParseInt(EnvUpdateBurst, cfg.API.UpdateBurst)
	cfg.API.BreakerThreshold = ParseInt(EnvBreakerThreshold, cfg.API.BreakerThreshold)
	cfg.API.BreakerReset = ParseDuration(EnvBreakerReset, cfg.API.BreakerReset)

	cfg.Timezone = ParseString(EnvTimezone, cfg.Timezone)
	cfg.Schedule = ParseString(EnvSchedule, cfg.Schedule)
	cfg.RunOnStart = ParseBool(EnvRunOnStart, cfg.RunOnStart)
	cfg.UpdateMode = ParseString(EnvUpdateMode, cfg.UpdateMode)
	cfg.UpdateParallelism = ParseInt(EnvUpdateParallelism, cfg.UpdateParallelism)

	if v, ok := os.LookupEnv(EnvListenAddr); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv(EnvMetricsAddr); ok {
		cfg.MetricsAddr = v
	}

	cfg.LogLevel = ParseString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = ParseString(EnvLogService, cfg.LogService)

	cfg.Telemetry.Enabled = ParseBool(EnvTelemetryEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString(EnvTelemetryExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString(EnvTelemetryEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = ParseFloat(EnvTelemetrySampling, cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = ParseString(EnvEnvironment, cfg.Telemetry.Environment)
}

// expandEnv expands environment variables in the format ${VAR} or $VAR
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}
