package cari

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/ambiyansyah-risyal/cari/internal/backoff"
)

const (
	maxResponseSize  = 32 << 20
	maxServerMessage = 256
)

// Client dispatches operations to the search service, failing over between
// the hosts of each traffic class. It is safe for concurrent use.
//
// Every Handler of a client, and of the views returned by WithHosts, runs on a
// single delivery queue: handlers never run concurrently and run in the order
// their calls resolved.
type Client struct {
	httpClient      *http.Client
	hosts           Hosts
	attemptTimeout  time.Duration
	backoff         backoff.Policy
	breakerConfig   *CircuitBreakerConfig
	breakers        *breakerSet
	middleware      []Middleware
	rateLimiters    *rateLimiterRegistry
	searchCacheTTL  time.Duration
	newSearchCache  func(index string) Cache
	taskWaitTimeout time.Duration
	userAgent       string
	metrics         *MetricsCollector
	debug           *DebugConfig
	logger          Logger
	queue           *serialQueue
	tasks           *singleflight.Group
	validationError error
}

// New constructs a Client using the provided functional options. A best effort
// validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		httpClient:     &http.Client{},
		attemptTimeout: 5 * time.Second,
		backoff: backoff.Policy{
			Initial:    50 * time.Millisecond,
			Max:        2 * time.Second,
			Multiplier: 2.0,
			Jitter:     0.1,
		},
		middleware:      []Middleware{},
		taskWaitTimeout: 2 * time.Minute,
		userAgent:       "cari/" + Version,
		debug:           DefaultDebugConfig(),
		queue:           newSerialQueue(),
		tasks:           &singleflight.Group{},
	}

	for _, option := range options {
		option(client)
	}

	if client.breakerConfig != nil {
		client.breakers = newBreakerSet(*client.breakerConfig)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// WithHosts returns a view of c that dispatches to hosts. Everything else,
// including the delivery queue and circuit breakers, is shared with c.
func (c *Client) WithHosts(hosts Hosts) *Client {
	view := *c
	view.hosts = NewHosts(hosts.Read, hosts.Write)
	view.validationError = view.ValidateConfiguration()
	return &view
}

// Hosts returns a copy of the configured host lists.
func (c *Client) Hosts() Hosts {
	return NewHosts(c.hosts.Read, c.hosts.Write)
}

// Dispatch starts op and returns immediately. onComplete, which may be nil,
// receives the outcome exactly once unless the returned Call is cancelled
// first. Cancelling ctx cancels the call.
func (c *Client) Dispatch(ctx context.Context, op Operation, onComplete Handler) *Call {
	callCtx, cancel := context.WithCancel(ctx)
	call := newCall(cancel, onComplete)
	context.AfterFunc(callCtx, call.Cancel)

	go func() {
		res, err := c.execute(callCtx, op)
		if callCtx.Err() != nil {
			// cancelled while executing; the outcome is never delivered
			call.Cancel()
			return
		}
		c.deliver(call, res, err)
	}()

	return call
}

// Do dispatches op and waits for its outcome.
func (c *Client) Do(ctx context.Context, op Operation) (Record, error) {
	return c.Dispatch(ctx, op, nil).Wait(ctx)
}

// resolved returns a call whose outcome is already known. The outcome still
// goes through the delivery queue so cached and dispatched results keep the
// same contract.
func (c *Client) resolved(ctx context.Context, res Record, err error, onComplete Handler) *Call {
	callCtx, cancel := context.WithCancel(ctx)
	call := newCall(cancel, onComplete)
	context.AfterFunc(callCtx, call.Cancel)
	if callCtx.Err() != nil {
		call.Cancel()
		return call
	}
	c.deliver(call, res, err)
	return call
}

func (c *Client) deliver(call *Call, res Record, err error) {
	c.queue.enqueue(func() {
		call.resolve(res, err)
	})
}

func (c *Client) execute(ctx context.Context, op Operation) (Record, error) {
	start := time.Now()
	requestID := c.newRequestID()

	c.metrics.RecordCallStart(op.Class)
	res, err := c.failover(ctx, op, requestID)
	c.metrics.RecordCallEnd(op.Class)

	outcome := "success"
	switch {
	case ctx.Err() != nil:
		outcome = "cancelled"
	case err != nil:
		outcome = "error"
		c.metrics.RecordError(errorType(err), op.Class)
	}
	c.metrics.RecordCall(op.Class, op.Method, outcome, time.Since(start))

	if c.debugOn(c.debug.LogRequests) {
		c.logger.Debug("Call resolved", "requestID", requestID, "method", op.Method, "path", op.Path,
			"class", op.Class.String(), "outcome", outcome, "duration", time.Since(start))
	}
	return res, err
}

// failover tries the hosts of op.Class in order until one succeeds, one fails
// fatally, or all have failed retryably.
func (c *Client) failover(ctx context.Context, op Operation, requestID string) (Record, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	hosts := c.hosts.For(op.Class)
	if len(hosts) == 0 {
		return nil, fmt.Errorf("%w for %s traffic", ErrNoHosts, op.Class)
	}

	if allowed, limiter, tokens := c.rateLimiters.allow(op.Class); limiter != "" {
		c.metrics.RecordRateLimiterTokens(limiter, tokens)
		if !allowed {
			if c.debugOn(c.debug.LogRateLimit) {
				c.logger.Warn("Rate limit exceeded", "requestID", requestID, "limiter", limiter, "path", op.Path)
			}
			return nil, ErrRateLimited
		}
	}

	body, err := encodeBody(op.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}

	start := time.Now()
	order := c.breakers.order(hosts)
	var last error
	for i, host := range order {
		if i > 0 {
			c.metrics.RecordFailover(op.Class)
			delay := c.backoff.Delay(i - 1)
			if c.debugOn(c.debug.LogRetries) {
				c.logger.Info("Failing over", "requestID", requestID, "next", host, "backoff", delay, "error", last)
			}
			if !backoff.Wait(ctx.Done(), delay) {
				return nil, ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := c.attempt(ctx, op, host, body, requestID)
		if err != nil && ctx.Err() != nil {
			// the failure was caused by cancellation, not by the host, so
			// the breaker is left alone
			c.metrics.RecordAttempt(host, "cancelled")
			return nil, ctx.Err()
		}
		c.recordAttempt(host, err, requestID)
		if err == nil {
			return res, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		last = err
	}

	return nil, &AllHostsExhaustedError{
		Hosts:    order,
		Attempts: len(order),
		Duration: time.Since(start),
		Last:     last,
	}
}

func (c *Client) recordAttempt(host string, err error, requestID string) {
	outcome := "success"
	switch {
	case IsRetryable(err):
		outcome = "retryable"
	case err != nil:
		outcome = "fatal"
	}
	c.metrics.RecordAttempt(host, outcome)

	if c.breakers != nil {
		state := c.breakers.record(host, err)
		c.metrics.RecordCircuitBreakerState(host, state)
		if state == StateOpen && c.debugOn(c.debug.LogCircuit) {
			c.logger.Warn("Circuit breaker open", "requestID", requestID, "host", host)
		}
	}

	if err != nil && c.debugOn(c.debug.LogRetries) {
		c.logger.Debug("Attempt failed", "requestID", requestID, "host", host, "outcome", outcome, "error", err)
	}
}

// attempt performs one request against host under its own timeout.
func (c *Client) attempt(ctx context.Context, op Operation, host string, body []byte, requestID string) (Record, error) {
	timeout := op.Timeout
	if timeout == 0 {
		timeout = c.attemptTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	base, err := baseURL(host)
	if err != nil {
		return nil, &NetworkError{Host: host, Cause: err}
	}
	target := strings.TrimRight(base.String(), "/") + op.Path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, op.Method, target, reader)
	if err != nil {
		return nil, &RequestError{Host: host, Message: "cannot build request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	resp, err := c.executeMiddleware(req)
	if err != nil {
		return nil, &NetworkError{Host: host, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &NetworkError{Host: host, StatusCode: resp.StatusCode, Cause: err}
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &NetworkError{Host: host, StatusCode: resp.StatusCode, Message: serverMessage(data)}
	case resp.StatusCode >= 400:
		return nil, &RequestError{Host: host, StatusCode: resp.StatusCode, Message: serverMessage(data)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &RequestError{Host: host, StatusCode: resp.StatusCode, Message: "unexpected status"}
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, &RequestError{Host: host, StatusCode: resp.StatusCode, Message: "malformed response body", Cause: err}
	}
	return rec, nil
}

func (c *Client) executeMiddleware(req *http.Request) (*http.Response, error) {
	if len(c.middleware) == 0 {
		return c.httpClient.Do(req)
	}

	current := RoundTripperFunc(c.httpClient.Do)

	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware := c.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.RoundTrip(req)
}

func encodeBody(body Record) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	return json.Marshal(body)
}

var errNotObject = errors.New("response is not a JSON object")

func decodeRecord(data []byte) (Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Record{}, nil
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errNotObject
	}
	return rec, nil
}

// serverMessage extracts the "message" field the service puts in error
// bodies, falling back to the raw text.
func serverMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > maxServerMessage {
		n := maxServerMessage
		for n > 0 && !utf8.RuneStart(msg[n]) {
			n--
		}
		msg = msg[:n]
	}
	return msg
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}
