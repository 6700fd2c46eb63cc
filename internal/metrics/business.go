// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle outcomes.
const (
	CycleSuccess  = "success"
	CycleDegraded = "degraded"
	CyclePanic    = "panic"
	CycleSkipped  = "skipped"
)

var (
	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onair_cycles_total",
		Help: "Total number of sync cycles by outcome",
	}, []string{"outcome"}) // outcome=success|degraded|panic|skipped

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "onair_cycle_duration_seconds",
		Help:    "Duration of sync cycles",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	lastCycleTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "onair_last_cycle_timestamp_seconds",
		Help: "Unix timestamp of the last completed sync cycle",
	})

	programationsFetched = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "onair_programations_fetched",
		Help: "Number of programations fetched in the last cycle",
	})

	programationsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "onair_programations_active",
		Help: "Number of programations evaluated as on air in the last cycle",
	})

	programationsInvalid = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "onair_programations_invalid",
		Help: "Number of programations skipped as invalid in the last cycle",
	})

	statusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onair_status_updates_total",
		Help: "Status update attempts by target state and outcome",
	}, []string{"state", "outcome"}) // state=active|inactive, outcome=success|failure

	fetchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "onair_fetch_failures_total",
		Help: "Total number of failed programation fetches",
	})

	configReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onair_config_reloads_total",
		Help: "Configuration reload attempts by outcome",
	}, []string{"outcome"})
)

// RecordCycle records a finished cycle. Skipped cycles carry no duration.
func RecordCycle(outcome string, d time.Duration) {
	cyclesTotal.WithLabelValues(outcome).Inc()
	if outcome == CycleSkipped {
		return
	}
	cycleDuration.Observe(d.Seconds())
	lastCycleTimestamp.SetToCurrentTime()
}

// SetProgramationCounts publishes the per-cycle evaluation counts.
func SetProgramationCounts(fetched, active, invalid int) {
	programationsFetched.Set(float64(fetched))
	programationsActive.Set(float64(active))
	programationsInvalid.Set(float64(invalid))
}

// RecordStatusUpdate counts one status update attempt.
func RecordStatusUpdate(active bool, err error) {
	state := "inactive"
	if active {
		state = "active"
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	statusUpdatesTotal.WithLabelValues(state, outcome).Inc()
}

// IncFetchFailure counts a failed fetch.
func IncFetchFailure() {
	fetchFailuresTotal.Inc()
}

// RecordConfigReload counts a configuration reload attempt.
func RecordConfigReload(err error) {
	if err != nil {
		configReloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	configReloadsTotal.WithLabelValues("success").Inc()
}
