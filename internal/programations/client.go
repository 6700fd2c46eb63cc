// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package programations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	onairlog "github.com/ManuGH/onair/internal/log"
	"github.com/ManuGH/onair/internal/metrics"
	"github.com/ManuGH/onair/internal/resilience"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultPageSize = 100
	defaultTimeout  = 15 * time.Second
	// maxPages bounds pagination against a CMS reporting a bogus pageCount.
	maxPages = 1000
	// maxErrorBody caps how much of an error response is kept for diagnostics.
	maxErrorBody = 512
)

// Options configures a Client.
type Options struct {
	// Populate is sent as ?populate= on list requests (empty = omitted).
	Populate string
	PageSize int
	Timeout  time.Duration

	// UpdateRate limits updates per second (0 = unlimited).
	UpdateRate  float64
	UpdateBurst int

	// BreakerThreshold consecutive upstream failures open the breaker (0 = no breaker).
	BreakerThreshold int
	BreakerReset     time.Duration

	// HTTPClient replaces the instrumented default client.
	HTTPClient *http.Client
}

// Client lists programations and updates their on-air flag.
type Client struct {
	base     *url.URL
	populate string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *resilience.CircuitBreaker
	logger   zerolog.Logger
}

// New creates a client for the collection endpoint at base,
// e.g. https://cms.example.org/api/programations.
func New(base string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", base)
	}

	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	c := &Client{
		base:     u,
		populate: opts.Populate,
		pageSize: opts.PageSize,
		http:     httpClient,
		logger:   onairlog.WithComponent("programations"),
	}
	if opts.UpdateRate > 0 {
		burst := opts.UpdateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.UpdateRate), burst)
	}
	if opts.BreakerThreshold > 0 {
		c.breaker = resilience.NewCircuitBreaker("programations_api", opts.BreakerThreshold, opts.BreakerReset,
			resilience.WithFailureFilter(upstreamFault))
	}
	return c, nil
}

// BreakerState reports the upstream circuit breaker state.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Fetch returns every programation, following pagination until the CMS
// reports the last page. A response without pagination metadata is a single page.
// Entries that fail to decode are returned with DecodeErr set.
func (c *Client) Fetch(ctx context.Context) ([]Record, error) {
	var all []Record
	for page := 1; page <= maxPages; page++ {
		resp, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, decodeRecords(resp.Data)...)

		if resp.Meta == nil || resp.Meta.Pagination == nil {
			break
		}
		pageCount := resp.Meta.Pagination.PageCount
		if page >= pageCount || len(resp.Data) == 0 {
			break
		}
		c.logger.Debug().
			Str(onairlog.FieldEvent, "fetch.next_page").
			Int("page", page+1).
			Int("page_count", pageCount).
			Msg("fetching next page")
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (*listResponse, error) {
	u := *c.base
	q := u.Query()
	if c.populate != "" {
		q.Set("populate", c.populate)
	}
	q.Set("pagination[page]", strconv.Itoa(page))
	q.Set("pagination[pageSize]", strconv.Itoa(c.pageSize))
	u.RawQuery = q.Encode()

	var out listResponse
	err := c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return &APIError{Sentinel: ErrUpstreamBadResponse, Op: OpFetch, Err: err}
		}
		req.Header.Set("Accept", "application/json")

		body, err := c.do(req, OpFetch, "")
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return &APIError{Sentinel: ErrUpstreamBadResponse, Op: OpFetch, Err: err}
		}
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, &APIError{Sentinel: ErrUpstreamUnavailable, Op: OpFetch, Err: err}
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Update sets the on-air flag of the programation with the given ID.
func (c *Client) Update(ctx context.Context, id string, active bool) error {
	if id == "" {
		return &APIError{Sentinel: ErrNotFound, Op: OpUpdate, Err: errors.New("empty programation id")}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &APIError{Sentinel: ErrTimeout, Op: OpUpdate, ID: id, Err: err}
		}
	}

	var payload updateRequest
	payload.Data.CurrentProgram = Flag(active)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	u := c.base.JoinPath(id)
	err = c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), bytes.NewReader(body))
		if err != nil {
			return &APIError{Sentinel: ErrUpstreamBadResponse, Op: OpUpdate, ID: id, Err: err}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		_, err = c.do(req, OpUpdate, id)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return &APIError{Sentinel: ErrUpstreamUnavailable, Op: OpUpdate, ID: id, Err: err}
	}
	return err
}

// do performs the request and maps transport and status failures to sentinels.
func (c *Client) do(req *http.Request, op, id string) ([]byte, error) {
	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		sentinel := ErrUpstreamUnavailable
		status := "error"
		if isTimeout(req.Context(), err) {
			sentinel = ErrTimeout
			status = "timeout"
		}
		metrics.RecordUpstreamRequest(op, status, time.Since(start))
		return nil, &APIError{Sentinel: sentinel, Op: op, ID: id, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	body, readErr := io.ReadAll(res.Body)
	metrics.RecordUpstreamRequest(op, strconv.Itoa(res.StatusCode), time.Since(start))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &APIError{
			Sentinel: statusSentinel(res.StatusCode),
			Op:       op,
			ID:       id,
			Status:   res.StatusCode,
			Body:     truncate(strings.TrimSpace(string(body)), maxErrorBody),
		}
	}
	if readErr != nil {
		sentinel := ErrUpstreamUnavailable
		if isTimeout(req.Context(), readErr) {
			sentinel = ErrTimeout
		}
		return nil, &APIError{Sentinel: sentinel, Op: op, ID: id, Status: res.StatusCode, Err: readErr}
	}
	return body, nil
}

func statusSentinel(code int) error {
	switch {
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return ErrTimeout
	case code >= 500:
		return ErrUpstreamError
	default:
		return ErrUpstreamBadResponse
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
