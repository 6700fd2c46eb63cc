// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ManuGH/onair/internal/config"
	"github.com/ManuGH/onair/internal/version"
	"gopkg.in/yaml.v3"
)

func runConfigCLI(args []string) int {
	return configCLI(args, os.Stdout, os.Stderr)
}

func configCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  onair config validate [--file|-f config.yaml]")
	fmt.Fprintln(w, "  onair config dump --effective [--file|-f config.yaml] [--format=yaml|json]")
}

func resolveConfigPath(file string) string {
	if p := strings.TrimSpace(file); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(envConfigPath))
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("onair config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := resolveConfigPath(file)
	if configPath == "" {
		fmt.Fprintf(stderr, "Error: --file is required (%s is not set)\n", envConfigPath)
		return 2
	}

	if _, err := config.NewLoader(configPath, version.Version).Load(); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		return 1
	}

	fmt.Fprintf(stdout, "%s is valid\n", configPath)
	return 0
}

func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("onair config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	var format string
	var effective bool

	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	fs.BoolVar(&effective, "effective", false, "dump effective configuration (defaults + file + env)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if !effective {
		fmt.Fprintln(stderr, "Error: --effective is required")
		return 2
	}

	// An empty path dumps defaults + env.
	configPath := resolveConfigPath(file)
	cfg, err := config.NewLoader(configPath, version.Version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		return 1
	}

	fileCfg := fileConfigFromAppConfig(cfg)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(stderr, "Unsupported format: %s (use yaml or json)\n", format)
		return 2
	}
}

// fileConfigFromAppConfig renders the effective config in file form. The
// base URL is masked so credentials never reach the output.
func fileConfigFromAppConfig(cfg config.AppConfig) config.FileConfig {
	populate := cfg.API.Populate
	updateRate := cfg.API.UpdateRate
	breakerThreshold := cfg.API.BreakerThreshold
	runOnStart := cfg.RunOnStart
	listen := cfg.ListenAddr
	metricsListen := cfg.MetricsAddr
	telemetryEnabled := cfg.Telemetry.Enabled
	samplingRate := cfg.Telemetry.SamplingRate

	return config.FileConfig{
		API: config.FileAPIConfig{
			BaseURL:          config.MaskURL(cfg.API.BaseURL),
			Populate:         &populate,
			PageSize:         cfg.API.PageSize,
			Timeout:          cfg.API.Timeout.String(),
			UpdateRate:       &updateRate,
			UpdateBurst:      cfg.API.UpdateBurst,
			BreakerThreshold: &breakerThreshold,
			BreakerReset:     cfg.API.BreakerReset.String(),
		},
		Timezone:   cfg.Timezone,
		Schedule:   cfg.Schedule,
		RunOnStart: &runOnStart,
		Update: config.FileUpdateConfig{
			Mode:        cfg.UpdateMode,
			Parallelism: cfg.UpdateParallelism,
		},
		Server: config.FileServerConfig{
			Listen:        &listen,
			MetricsListen: &metricsListen,
		},
		LogLevel:   cfg.LogLevel,
		LogService: cfg.LogService,
		Telemetry: config.FileTelemetryConfig{
			Enabled:      &telemetryEnabled,
			Exporter:     cfg.Telemetry.Exporter,
			Endpoint:     cfg.Telemetry.Endpoint,
			SamplingRate: &samplingRate,
			Environment:  cfg.Telemetry.Environment,
		},
	}
}
