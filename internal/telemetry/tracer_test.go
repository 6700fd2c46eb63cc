// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"context"
	"testing"

	"github.com/ManuGH/onair/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: "grpc"})
	require.NoError(t, err)
	assert.Nil(t, provider.tp)

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ExporterType: "zipkin"})
	require.Error(t, err)
	assert.Equal(t, "unsupported exporter type: zipkin (supported: grpc, http)", err.Error())
}

func TestNewProvider_HTTPExporter(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "onair-test",
		ExporterType: "http",
		Endpoint:     "127.0.0.1:4318",
		SamplingRate: 0,
	})
	require.NoError(t, err)
	require.NotNil(t, provider.tp)
	t.Cleanup(func() {
		_, _ = NewProvider(context.Background(), Config{Enabled: false})
	})

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want sdktrace.SamplingDecision
	}{
		{1.0, sdktrace.RecordAndSample},
		{2.0, sdktrace.RecordAndSample},
		{0.0, sdktrace.Drop},
		{-1, sdktrace.Drop},
	}
	for _, tt := range tests {
		res := Sampler(tt.rate).ShouldSample(sdktrace.SamplingParameters{
			ParentContext: context.Background(),
			Name:          "cycle",
		})
		assert.Equal(t, tt.want, res.Decision, "rate %v", tt.rate)
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := config.Defaults()
	cfg.Version = "v0.3.0"
	cfg.Telemetry.Enabled = true

	got := ConfigFrom(cfg)
	assert.True(t, got.Enabled)
	assert.Equal(t, "v0.3.0", got.ServiceVersion)
	assert.Equal(t, cfg.Telemetry.Exporter, got.ExporterType)
	assert.NotEmpty(t, got.ServiceName)
}

func TestCycleAttributes(t *testing.T) {
	attrs := CycleAttributes("c1", "manual", "lunes", "diff")
	assert.Contains(t, attrs, attribute.String(CycleIDKey, "c1"))
	assert.Contains(t, attrs, attribute.String(WeekdayKey, "lunes"))
	assert.Len(t, CycleResultAttributes(1, 2, 3, 4, 5), 5)
}
