package constants

// External provider error codes
const (
	ErrCodeNetworkError         = "NETWORK_ERROR"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeResourceNotFound     = "RESOURCE_NOT_FOUND"
	ErrCodeInvalidDataFormat    = "INVALID_DATA_FORMAT"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeTimeout              = "TIMEOUT"
)

var ProviderErrorMessages = map[string]string{
	ErrCodeNetworkError:         "Unable to reach the external service",
	ErrCodeRateLimited:          "Rate limit exceeded. Please try again later",
	ErrCodeResourceNotFound:     "The requested resource was not found",
	ErrCodeInvalidDataFormat:    "The data format is invalid",
	ErrCodeAuthenticationFailed: "Authentication with the external service failed",
	ErrCodeForbidden:            "Missing permissions for this action",
	ErrCodeTimeout:              "The external service did not answer in time",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := ProviderErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
