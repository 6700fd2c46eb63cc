// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/ManuGH/onair/internal/config"
	"github.com/ManuGH/onair/internal/log"
	"github.com/rs/zerolog"
)

// resolveTimeout bounds the DNS probe of the CMS host.
const resolveTimeout = 3 * time.Second

// PerformStartupChecks validates the runtime environment before the daemon
// starts serving. An unresolvable CMS host is only a warning: the first cycle
// degrades to an empty list and later cycles retry.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Str("event", "startup.checks").Msg("running pre-flight startup checks")

	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("timezone check failed: %w", err)
	}
	logger.Info().Str("timezone", cfg.Timezone).Msg("timezone database entry found")

	if err := checkListenAddrs(logger, cfg); err != nil {
		return fmt.Errorf("listen address check failed: %w", err)
	}

	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid API base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API base URL scheme must be http or https, got: %s", u.Scheme)
	}
	checkResolvable(ctx, logger, u.Hostname())

	logger.Info().Str("event", "startup.checks_passed").Msg("all startup checks passed")
	return nil
}

func checkListenAddrs(logger zerolog.Logger, cfg config.AppConfig) error {
	seen := map[string]string{}
	for name, addr := range map[string]string{"api": cfg.ListenAddr, "metrics": cfg.MetricsAddr} {
		if addr == "" {
			continue
		}
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("invalid %s listen address %q: %w", name, addr, err)
		}
		portNum, err := strconv.Atoi(port)
		if err != nil || portNum < 0 || portNum > 65535 {
			return fmt.Errorf("invalid %s listen port %q in %q", name, port, addr)
		}
		key := host + ":" + port
		if portNum != 0 {
			if other, dup := seen[key]; dup {
				return fmt.Errorf("%s and %s listen on the same address %q", other, name, addr)
			}
			seen[key] = name
		}
		logger.Info().Str("listener", name).Str("addr", addr).Msg("listen address is valid")
	}
	return nil
}

func checkResolvable(ctx context.Context, logger zerolog.Logger, host string) {
	if host == "" || net.ParseIP(host) != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()
	if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
		logger.Warn().
			Err(err).
			Str("event", "startup.dns_failed").
			Str("host", host).
			Msg("CMS host does not resolve yet; cycles will degrade until it does")
		return
	}
	logger.Info().Str("host", host).Msg("CMS host resolves")
}
