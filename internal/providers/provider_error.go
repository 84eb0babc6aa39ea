package providers

import (
	"context"
	"errors"
	"fmt"
	"infinite-experiment/garrison/internal/constants"
	"net"
	"net/http"
)

// ProviderError represents a provider-specific error
type ProviderError struct {
	Code       string
	Message    string
	Details    string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsForbidden reports whether err is a provider 403.
func IsForbidden(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == constants.ErrCodeForbidden
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == constants.ErrCodeResourceNotFound
}

// errorCode extracts the provider code for metrics; empty when err is nil.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return constants.ErrCodeNetworkError
}

// transportError classifies a failed http.Client.Do.
func transportError(err error) *ProviderError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ProviderError{
			Code:    constants.ErrCodeTimeout,
			Message: constants.GetErrorMessage(constants.ErrCodeTimeout),
			Err:     err,
		}
	}
	return &ProviderError{
		Code:    constants.ErrCodeNetworkError,
		Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
		Err:     err,
	}
}

// buildHTTPError creates appropriate error based on status code
func buildHTTPError(statusCode int, endpoint string, body string) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return &ProviderError{
			Code:       constants.ErrCodeAuthenticationFailed,
			Message:    fmt.Sprintf("Authentication failed for endpoint %s", endpoint),
			Details:    body,
			StatusCode: statusCode,
		}
	case http.StatusForbidden:
		return &ProviderError{
			Code:       constants.ErrCodeForbidden,
			Message:    fmt.Sprintf("Missing permissions for %s", endpoint),
			Details:    body,
			StatusCode: statusCode,
		}
	case http.StatusNotFound:
		return &ProviderError{
			Code:       constants.ErrCodeResourceNotFound,
			Message:    fmt.Sprintf("Resource not found: %s", endpoint),
			Details:    body,
			StatusCode: statusCode,
		}
	case http.StatusTooManyRequests:
		return &ProviderError{
			Code:       constants.ErrCodeRateLimited,
			Message:    constants.GetErrorMessage(constants.ErrCodeRateLimited),
			Details:    body,
			StatusCode: statusCode,
		}
	case http.StatusBadRequest:
		return &ProviderError{
			Code:       constants.ErrCodeInvalidDataFormat,
			Message:    fmt.Sprintf("Bad request to %s", endpoint),
			Details:    body,
			StatusCode: statusCode,
		}
	default:
		return &ProviderError{
			Code:       constants.ErrCodeNetworkError,
			Message:    fmt.Sprintf("HTTP %d from %s: %s", statusCode, endpoint, body),
			Details:    body,
			StatusCode: statusCode,
		}
	}
}
