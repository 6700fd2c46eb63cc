// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onair_upstream_requests_total",
		Help: "Requests to the programations API by operation and status",
	}, []string{"op", "status"}) // status=HTTP code, "error" or "timeout"

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "onair_upstream_request_duration_seconds",
		Help:    "Latency of programations API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

// RecordUpstreamRequest records a single programations API round trip.
func RecordUpstreamRequest(op, status string, d time.Duration) {
	upstreamRequestsTotal.WithLabelValues(op, status).Inc()
	upstreamRequestDuration.WithLabelValues(op).Observe(d.Seconds())
}
