// Package resilience provides the error taxonomy, retry, and circuit-breaking
// primitives used when driving the LLM provider.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// TransientError wraps an error that is safe to retry (429, 5xx, timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient with an optional HTTP status.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// AuthError marks a credential rejection (401/403). Never retried: the same
// key will fail the same way, and persistent auth failures abort the run.
type AuthError struct {
	Err        error
	StatusCode int
}

func (e *AuthError) Error() string { return e.Err.Error() }

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError wraps an error as an authentication failure.
func NewAuthError(err error, statusCode int) *AuthError {
	return &AuthError{Err: err, StatusCode: statusCode}
}

// UnsupportedFeatureError marks a provider rejecting a request mode (e.g. the
// structured-output response format). The caller falls back to a plain
// request instead of failing the batch.
type UnsupportedFeatureError struct {
	Err     error
	Feature string
}

func (e *UnsupportedFeatureError) Error() string { return e.Err.Error() }

func (e *UnsupportedFeatureError) Unwrap() error { return e.Err }

// NewUnsupportedFeatureError wraps a request-mode rejection.
func NewUnsupportedFeatureError(err error, feature string) *UnsupportedFeatureError {
	return &UnsupportedFeatureError{Err: err, Feature: feature}
}

// IsAuth reports whether the chain contains an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsUnsupportedFeature reports whether the chain contains an
// UnsupportedFeatureError.
func IsUnsupportedFeature(err error) bool {
	var ue *UnsupportedFeatureError
	return errors.As(err, &ue)
}

// IsTransient reports whether the error (or anything in its chain) is a
// TransientError or matches common transient network failure patterns.
// Auth and unsupported-feature errors are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsAuth(err) || IsUnsupportedFeature(err) {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Wrapped HTTP-client errors often survive only as strings.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"context deadline exceeded",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus reports whether the status code indicates a
// server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
