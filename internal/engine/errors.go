// Package engine drives the model/tool loop: it turns model replies into
// invocations, executes them and decides when a run is finished.
//
// This file contains error classification and handling.
package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RetryClass indicates whether an error should be retried.
type RetryClass string

const (
	RetryClassRetryable    RetryClass = "retryable"     // Definitely retry
	RetryClassMaybe        RetryClass = "maybe"         // Retry with caution (limited attempts)
	RetryClassNonRetryable RetryClass = "non_retryable" // Never retry
)

// EngineError wraps model errors with classification metadata.
type EngineError struct {
	Err         error
	Class       RetryClass
	HTTPStatus  int    // HTTP status code if applicable
	RetryAfter  string // Retry-After header value if present
	IsRateLimit bool
	IsTimeout   bool
	IsNetwork   bool
	IsAuth      bool
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("engine error: %s", e.Class)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// ClassifyLLMError classifies an error from a model provider call.
func ClassifyLLMError(err error) RetryClass {
	if err == nil {
		return RetryClassNonRetryable
	}

	var engineErr *EngineError
	if errors.As(err, &engineErr) && engineErr.Class != "" {
		return engineErr.Class
	}

	errStr := strings.ToLower(err.Error())
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(errStr, s) {
				return true
			}
		}
		return false
	}

	switch {
	// auth and quota problems never fix themselves
	case has("401", "403", "unauthorized", "forbidden", "invalid api key", "authentication failed"):
		return RetryClassNonRetryable
	case has("402", "quota", "billing", "payment required"):
		return RetryClassNonRetryable
	case has("429", "rate limit", "too many requests"):
		return RetryClassRetryable
	case has("500", "502", "503", "504", "internal server error", "bad gateway", "service unavailable", "gateway timeout"):
		return RetryClassRetryable
	case has("context deadline exceeded", "deadline exceeded"):
		return RetryClassMaybe
	case has("timeout", "connection reset", "connection refused", "no such host", "network", "temporary failure"):
		return RetryClassRetryable
	case has("context length", "token limit", "maximum context length"):
		return RetryClassMaybe
	default:
		return RetryClassNonRetryable
	}
}

// WrapLLMError wraps a provider error with classification metadata.
func WrapLLMError(err error, httpStatus int, retryAfter string) error {
	if err == nil {
		return nil
	}
	return &EngineError{
		Err:         err,
		Class:       ClassifyLLMError(err),
		HTTPStatus:  httpStatus,
		RetryAfter:  retryAfter,
		IsRateLimit: httpStatus == http.StatusTooManyRequests,
		IsTimeout:   httpStatus == http.StatusGatewayTimeout || httpStatus == http.StatusRequestTimeout,
		IsNetwork:   httpStatus == 0 || httpStatus >= 500,
		IsAuth:      httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden,
	}
}

// ExtractRetryAfter returns the server-requested delay carried by err, or 0.
func ExtractRetryAfter(err error) time.Duration {
	var engineErr *EngineError
	if errors.As(err, &engineErr) && engineErr.RetryAfter != "" {
		var seconds int
		if _, err := fmt.Sscanf(engineErr.RetryAfter, "%d", &seconds); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if t, err := time.Parse(time.RFC1123, engineErr.RetryAfter); err == nil {
			if d := time.Until(t); d > 0 {
				return d
			}
		}
	}
	return 0
}

// RetryExhaustedError indicates that all retry attempts have been used.
type RetryExhaustedError struct {
	Err      error
	Attempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// RunError wraps a run-fatal error with the iteration and operation it
// escaped from.
type RunError struct {
	Err       error
	Iteration int
	Operation string // "setup", "system_spec", "iteration", "panic", ...
}

func (e *RunError) Error() string {
	return fmt.Sprintf("[iteration=%d op=%s] %v", e.Iteration, e.Operation, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func wrapRun(err error, iteration int, operation string) error {
	if err == nil {
		return nil
	}
	return &RunError{Err: err, Iteration: iteration, Operation: operation}
}

// DepthExceededError is reported when component interpretation nests deeper
// than the configured limit.
type DepthExceededError struct {
	Component string
	Depth     int
	Max       int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("component %s: recursion depth %d exceeds limit %d", e.Component, e.Depth, e.Max)
}
