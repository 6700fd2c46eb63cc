// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"github.com/ManuGH/onair/internal/config"
	"github.com/ManuGH/onair/internal/health"
	onairlog "github.com/ManuGH/onair/internal/log"
	"github.com/ManuGH/onair/internal/telemetry"
	"github.com/ManuGH/onair/internal/version"
)

// envConfigPath names the config file when --config is not given.
const envConfigPath = "ONAIR_CONFIG"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	once := flag.Bool("once", false, "run a single sync cycle and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until the config is loaded.
	onairlog.Configure(onairlog.Config{
		Level:   "info",
		Service: "onair",
		Version: version.Version,
	})
	logger := onairlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(envConfigPath))
	}

	loader := config.NewLoader(path, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	onairlog.Configure(onairlog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	logger = onairlog.WithComponent("daemon")

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str("event", "config.loaded").
		Str("source", source).
		Str("path", path).
		Msg("configuration loaded")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "startup.check_failed").
			Msg("startup checks failed, please verify configuration")
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str(onairlog.FieldBaseURL, config.MaskURL(cfg.API.BaseURL)).
		Str(onairlog.FieldTimezone, cfg.Timezone).
		Str("schedule", cfg.Schedule).
		Str("update_mode", cfg.UpdateMode).
		Msg("starting onair")

	provider, err := telemetry.NewProvider(ctx, telemetry.ConfigFrom(cfg))
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "telemetry.init_failed").
			Msg("failed to initialise tracing")
	}

	svc := newService(cfg, loader)

	if *once {
		code := runOnce(ctx, svc, os.Stdout)
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn().Err(err).Str("event", "telemetry.shutdown_failed").Msg("failed to flush traces")
		}
		stop()
		os.Exit(code)
	}

	if err := runDaemon(ctx, cfg, svc, provider.Shutdown); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon failed")
	}

	logger.Info().Str("event", "shutdown").Msg("onair exiting")
}
