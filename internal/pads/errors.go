package pads

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrPadOutOfRange   = fmt.Errorf("%w: pad out of range", ErrInvalidInput)
	ErrSessionNotFound = errors.New("no active session on this pad")
	ErrNotSessionOwner = errors.New("only the session host can end this session")

	// ErrConflict matches both PadOccupiedError and UserHasSessionError.
	ErrConflict = errors.New("pad conflict")

	// ErrDuplicate is returned by a Store when an insert hits a uniqueness rule.
	ErrDuplicate = errors.New("duplicate pad session")
)

// PadOccupiedError reports the session already holding the requested pad.
type PadOccupiedError struct {
	Session Session
}

func (e *PadOccupiedError) Error() string {
	return fmt.Sprintf("pad %d is occupied by a %s hosted by %s",
		e.Session.Pad, e.Session.Kind, e.Session.OwnerID)
}

func (e *PadOccupiedError) Is(target error) bool {
	return target == ErrConflict
}

// UserHasSessionError reports the session the requesting user already hosts.
type UserHasSessionError struct {
	Session Session
}

func (e *UserHasSessionError) Error() string {
	return fmt.Sprintf("user %s already hosts a session on pad %d",
		e.Session.OwnerID, e.Session.Pad)
}

func (e *UserHasSessionError) Is(target error) bool {
	return target == ErrConflict
}
