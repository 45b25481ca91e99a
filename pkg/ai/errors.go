package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	OpCompletion = "completion"
	OpStream     = "stream"
)

// ErrUpstreamTimeout marks a provider call that exceeded the per-attempt timeout
var ErrUpstreamTimeout = errors.New("upstream request timed out")

// UpstreamError is returned for any failed provider call. Op tells whether
// it came from Complete or StreamComplete; StatusCode is 0 for transport
// failures.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	verb := "generate"
	if e.Op == OpStream {
		verb = "stream"
	}
	return fmt.Sprintf("failed to %s completion: %v", verb, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call ran out of time
func (e *UpstreamError) Timeout() bool {
	return errors.Is(e.Err, ErrUpstreamTimeout)
}

// Retryable reports whether another attempt may succeed. Client errors are
// final except request timeout and rate limiting.
func (e *UpstreamError) Retryable() bool {
	if e.Timeout() {
		return true
	}
	switch {
	case e.StatusCode == 0:
		return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, context.DeadlineExceeded)
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= http.StatusInternalServerError:
		return true
	}
	return false
}

// IsTimeout reports whether err carries ErrUpstreamTimeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrUpstreamTimeout)
}

// providerError is the error envelope returned by OpenAI-compatible APIs
type providerError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}
