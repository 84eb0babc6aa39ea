package services

import (
	"errors"
	"fmt"

	"infinite-experiment/garrison/internal/auth"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrAlreadyVerified = errors.New("user is already verified")
)

// Actor is the guild member a command runs for.
type Actor struct {
	GuildID  string
	UserID   string
	Elevated bool
	RoleIDs  []string
}

func ActorFromClaims(c auth.UserClaims) Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{
		GuildID:  c.DiscordServerID(),
		UserID:   c.DiscordUserID(),
		Elevated: c.Elevated(),
		RoleIDs:  c.RoleIDs(),
	}
}

// HasAnyRole reports whether the actor holds one of roleIDs.
func (a Actor) HasAnyRole(roleIDs []string) bool {
	for _, want := range roleIDs {
		for _, have := range a.RoleIDs {
			if want == have {
				return true
			}
		}
	}
	return false
}

// target resolves the member an action applies to. Acting on someone else
// needs elevation.
func (a Actor) target(userID string) (string, error) {
	if userID == "" || userID == a.UserID {
		return a.UserID, nil
	}
	if !a.Elevated {
		return "", fmt.Errorf("%w: only server owners can act for other members", ErrForbidden)
	}
	return userID, nil
}
