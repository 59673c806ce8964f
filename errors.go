package cari

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for common failure scenarios
var (
	// ErrCancelled is returned by Call.Wait when the call was cancelled. It is
	// never passed to a Handler: cancellation suppresses delivery.
	ErrCancelled = errors.New("cari: call cancelled")

	// ErrNoHosts is returned when the traffic class of an operation has no hosts.
	ErrNoHosts = errors.New("cari: no hosts configured")

	// ErrInvalidOperation is returned when an operation fails validation.
	ErrInvalidOperation = errors.New("cari: invalid operation")

	// ErrRateLimited is returned when a dispatch is denied by the rate limiter
	ErrRateLimited = errors.New("cari: rate limited")

	// ErrIteratorStarted is returned by BrowseIterator.Start on a second call.
	ErrIteratorStarted = errors.New("cari: browse iterator already started")

	// ErrIteratorNotStarted is returned by iterator methods called before Start.
	ErrIteratorNotStarted = errors.New("cari: browse iterator not started")

	// ErrNoPageYet is returned by HasNext before the first page was processed.
	ErrNoPageYet = errors.New("cari: no page received yet")

	// ErrTaskTimeout is returned by WaitTask when the task is not published in time.
	ErrTaskTimeout = errors.New("cari: task wait deadline exceeded")
)

// NetworkError reports a retryable, host-local failure: the host was
// unreachable, the attempt timed out, or the host answered with a 5xx status.
type NetworkError struct {
	Host       string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements error interface.
func (e *NetworkError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.StatusCode > 0 && e.Message != "":
		return fmt.Sprintf("network error: %s: status %d: %s", e.Host, e.StatusCode, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("network error: %s: status %d", e.Host, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("network error: %s (%v)", e.Host, e.Cause)
	default:
		return fmt.Sprintf("network error: %s", e.Host)
	}
}

// Unwrap returns the underlying cause.
func (e *NetworkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// RequestError reports a fatal failure caused by the request itself: a 4xx
// status or a response body that is not a JSON object.
type RequestError struct {
	Host       string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements error interface.
func (e *RequestError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("request error: %s: status %d", e.Host, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// AllHostsExhaustedError is returned when every candidate host failed with a
// retryable error. It unwraps to the last of those errors.
type AllHostsExhaustedError struct {
	Hosts    []string
	Attempts int
	Duration time.Duration
	Last     error
}

// Error implements error interface.
func (e *AllHostsExhaustedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("all hosts exhausted after %d attempts [%s]: %v",
		e.Attempts, strings.Join(e.Hosts, ", "), e.Last)
}

// Unwrap returns the last retryable error.
func (e *AllHostsExhaustedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Last
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *AllHostsExhaustedError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Attempts: %d\n", e.Attempts)
	info += fmt.Sprintf("Hosts: %s\n", strings.Join(e.Hosts, ", "))
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Last != nil {
		info += fmt.Sprintf("Last: %v\n", e.Last)
	}
	return info
}

// IsRetryable reports whether err is a host-local failure worth retrying on
// another host.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var netErr *NetworkError
	return errors.As(err, &netErr) && !isExhausted(err)
}

func isExhausted(err error) bool {
	var exhausted *AllHostsExhaustedError
	return errors.As(err, &exhausted)
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.StatusCode
	}
	return 0
}

// errorType names err for metrics labels.
func errorType(err error) string {
	var (
		reqErr *RequestError
		netErr *NetworkError
	)
	switch {
	case err == nil:
		return ""
	case isExhausted(err):
		return "AllHostsExhausted"
	case errors.As(err, &reqErr):
		return "Request"
	case errors.As(err, &netErr):
		return "Network"
	case errors.Is(err, ErrRateLimited):
		return "RateLimit"
	case errors.Is(err, ErrNoHosts), errors.Is(err, ErrInvalidOperation):
		return "Validation"
	default:
		return "Unknown"
	}
}
