// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package programations

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/ManuGH/onair/internal/resilience"
	"github.com/stretchr/testify/assert"
)

func TestStatusSentinel(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"HTTP 404", http.StatusNotFound, ErrNotFound},
		{"HTTP 403", http.StatusForbidden, ErrForbidden},
		{"HTTP 401", http.StatusUnauthorized, ErrForbidden},
		{"HTTP 500", http.StatusInternalServerError, ErrUpstreamError},
		{"HTTP 503", http.StatusServiceUnavailable, ErrUpstreamError},
		{"HTTP 504", http.StatusGatewayTimeout, ErrTimeout},
		{"HTTP 400", http.StatusBadRequest, ErrUpstreamBadResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, statusSentinel(tc.status), tc.sentinel)
		})
	}
}

func TestIsTimeout(t *testing.T) {
	ctx := context.Background()
	assert.True(t, isTimeout(ctx, &net.DNSError{IsTimeout: true}))
	assert.True(t, isTimeout(ctx, context.DeadlineExceeded))
	assert.False(t, isTimeout(ctx, errors.New("connection refused")))
}

func TestAPIError_UnwrapsSentinelAndCause(t *testing.T) {
	err := &APIError{
		Sentinel: ErrUpstreamUnavailable,
		Op:       OpUpdate,
		ID:       "abc",
		Err:      resilience.ErrCircuitOpen,
	}

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, "programations: update abc: upstream: host unreachable or transport failure: circuit breaker is open", err.Error())

	var apiErr *APIError
	assert.True(t, errors.As(error(err), &apiErr))
	assert.Equal(t, OpUpdate, apiErr.Op)
}

func TestAPIError_MessageWithStatus(t *testing.T) {
	err := &APIError{Sentinel: ErrUpstreamError, Op: OpFetch, Status: 502, Body: "bad gateway"}
	assert.Equal(t, "programations: fetch: upstream: internal error (5xx) (HTTP 502): bad gateway", err.Error())
}

func TestUpstreamFault(t *testing.T) {
	assert.True(t, upstreamFault(&APIError{Sentinel: ErrUpstreamError, Op: OpFetch}))
	assert.True(t, upstreamFault(&APIError{Sentinel: ErrTimeout, Op: OpFetch}))
	assert.False(t, upstreamFault(&APIError{Sentinel: ErrNotFound, Op: OpUpdate}))
	assert.False(t, upstreamFault(&APIError{Sentinel: ErrUpstreamBadResponse, Op: OpFetch}))
	assert.False(t, upstreamFault(&APIError{Sentinel: ErrUpstreamUnavailable, Op: OpFetch, Err: context.Canceled}))
}
