// Package aierrors defines the error taxonomy for external AI calls.
// Every failure crossing the transport boundary is classified into a type
// that determines retry eligibility: timeouts, network failures, rate
// limits, and 5xx responses are transient; validation failures and open
// circuit breakers are not.
package aierrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ErrorType categorizes AI call failures for retry classification.
type ErrorType string

const (
	// ErrorTypeTimeout indicates the call exceeded its deadline (retryable).
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeNetwork indicates connectivity problems (retryable).
	ErrorTypeNetwork ErrorType = "network"

	// ErrorTypeRateLimit indicates the service pushed back with 429 (retryable).
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeUnavailable indicates a 5xx from the service (retryable).
	ErrorTypeUnavailable ErrorType = "service_unavailable"

	// ErrorTypeCircuitOpen indicates the breaker rejected the call
	// without invoking the service (never retried).
	ErrorTypeCircuitOpen ErrorType = "circuit_open"

	// ErrorTypeValidation indicates a request the service rejected as
	// malformed (never retried).
	ErrorTypeValidation ErrorType = "validation_failed"
)

// ServiceError captures a classified failure from an AI service call.
type ServiceError struct {
	Service    string    `json:"service"`
	StatusCode int       `json:"status_code,omitempty"`
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Service, e.Message)
}

// Retryable reports whether the error warrants another attempt.
func (e *ServiceError) Retryable() bool {
	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeUnavailable:
		return true
	default:
		return false
	}
}

// CircuitBreakerError indicates the breaker is rejecting calls for a
// service. It is distinguished from transient failures so callers can
// report "service degraded, try later" without waiting out a retry budget.
type CircuitBreakerError struct {
	Service string    `json:"service"`
	State   string    `json:"state"`
	RetryAt time.Time `json:"retry_at"`
}

func (e *CircuitBreakerError) Error() string {
	return fmt.Sprintf("circuit breaker %s for %s", e.State, e.Service)
}

// IsRetryable classifies an arbitrary error for the retry layer. Breaker
// rejections are checked first: they must never consume retry budget.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var cbErr *CircuitBreakerError
	if errors.As(err, &cbErr) {
		return false
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Retryable()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout() || isNetworkErrorByString(err.Error())
	}

	return isNetworkErrorByString(err.Error())
}

// IsTimeout reports whether the error is timeout-class, used to pick the
// audit record outcome (timeout vs error).
func IsTimeout(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Type == ErrorTypeTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsCircuitOpen reports whether the error is a breaker rejection.
func IsCircuitOpen(err error) bool {
	var cbErr *CircuitBreakerError
	return errors.As(err, &cbErr)
}

func isNetworkErrorByString(errStr string) bool {
	lowered := strings.ToLower(errStr)
	for _, indicator := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"eof",
	} {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}
