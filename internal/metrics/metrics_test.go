// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, h.Write(metric))
	return metric.GetHistogram().GetSampleCount()
}

func TestRecordCycle(t *testing.T) {
	beforeOK := testutil.ToFloat64(cyclesTotal.WithLabelValues(CycleSuccess))
	beforeSkipped := testutil.ToFloat64(cyclesTotal.WithLabelValues(CycleSkipped))
	beforeObs := histogramCount(t, cycleDuration)

	RecordCycle(CycleSuccess, 120*time.Millisecond)
	RecordCycle(CycleSkipped, 0)

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(cyclesTotal.WithLabelValues(CycleSuccess)))
	assert.Equal(t, beforeSkipped+1, testutil.ToFloat64(cyclesTotal.WithLabelValues(CycleSkipped)))
	assert.Equal(t, beforeObs+1, histogramCount(t, cycleDuration), "skipped cycles are not timed")
	assert.Greater(t, testutil.ToFloat64(lastCycleTimestamp), 0.0)
}

func TestSetProgramationCounts(t *testing.T) {
	SetProgramationCounts(12, 2, 1)

	assert.Equal(t, 12.0, testutil.ToFloat64(programationsFetched))
	assert.Equal(t, 2.0, testutil.ToFloat64(programationsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(programationsInvalid))
}

func TestRecordStatusUpdate(t *testing.T) {
	activeOK := statusUpdatesTotal.WithLabelValues("active", "success")
	inactiveFail := statusUpdatesTotal.WithLabelValues("inactive", "failure")
	beforeOK := testutil.ToFloat64(activeOK)
	beforeFail := testutil.ToFloat64(inactiveFail)

	RecordStatusUpdate(true, nil)
	RecordStatusUpdate(false, errors.New("boom"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(activeOK))
	assert.Equal(t, beforeFail+1, testutil.ToFloat64(inactiveFail))
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState("test_component", "open")

	assert.Equal(t, 1.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("test_component", "open")))
	assert.Equal(t, 0.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("test_component", "closed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("test_component", "half-open")))
}

func TestPromhttpExposure(t *testing.T) {
	RecordUpstreamRequest("fetch", "200", 30*time.Millisecond)
	IncFetchFailure()
	RecordConfigReload(nil)

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, name := range []string{
		"onair_upstream_requests_total",
		"onair_upstream_request_duration_seconds",
		"onair_fetch_failures_total",
		"onair_config_reloads_total",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}
