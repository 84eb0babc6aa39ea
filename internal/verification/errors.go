package verification

import (
	"errors"
	"fmt"
)

var (
	ErrNoPendingVerification = errors.New("no pending verification")
	ErrExpired               = errors.New("verification code expired")
	ErrExternalUserNotFound  = errors.New("roblox user not found")
	ErrCodeNotFound          = errors.New("verification code not found in profile description")
	ErrInvalidUsername       = errors.New("invalid roblox username")
	ErrNotVerified           = errors.New("user is not verified")

	// ErrExternalService matches every *ExternalServiceError.
	ErrExternalService = errors.New("roblox service unavailable")
)

// ExternalServiceError wraps a failed call to the profile service. It is
// safe to retry.
type ExternalServiceError struct {
	Op  string
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("roblox %s failed: %v", e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

func (e *ExternalServiceError) Is(target error) bool {
	return target == ErrExternalService
}
