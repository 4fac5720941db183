package client

import (
	"context"
	"errors"

	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

// Error category constants used as metric labels (weatherApiErrorsTotal).
const (
	ErrorCategoryEmptyInput          ErrorCategory = "empty_input"
	ErrorCategoryNotFound            ErrorCategory = "not_found"
	ErrorCategoryTimeout             ErrorCategory = "timeout"
	ErrorCategoryUpstreamUnavailable ErrorCategory = "upstream_unavailable"
	ErrorCategoryMalformedResponse   ErrorCategory = "malformed_response"
	ErrorCategoryInvalidAPIKey       ErrorCategory = "invalid_api_key"
	ErrorCategoryUnknown             ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory for metrics.
// Timeouts are reported separately from other transport failures.
func CategorizeError(err error) ErrorCategory {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, validation.ErrEmptyInput):
		return ErrorCategoryEmptyInput
	case errors.Is(err, ErrNotFound):
		return ErrorCategoryNotFound
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return ErrorCategoryTimeout
	case errors.Is(err, ErrUpstreamUnavailable):
		return ErrorCategoryUpstreamUnavailable
	case errors.Is(err, ErrMalformedResponse):
		return ErrorCategoryMalformedResponse
	case errors.Is(err, ErrInvalidAPIKey):
		return ErrorCategoryInvalidAPIKey
	default:
		return ErrorCategoryUnknown
	}
}

// IsUpstreamFailure reports whether err means the provider could not serve a usable answer,
// as opposed to a bad city name or blank input.
func IsUpstreamFailure(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrMalformedResponse)
}
