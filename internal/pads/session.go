// Package pads tracks which numbered pads of a guild are taken by a running
// tryout or training session.
package pads

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the type of activity held on a pad.
type Kind string

const (
	KindTryout   Kind = "tryout"
	KindTraining Kind = "training"
)

// ParseKind accepts the kind case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindTryout:
		return KindTryout, nil
	case KindTraining:
		return KindTraining, nil
	}
	return "", fmt.Errorf("%w: unknown session kind %q", ErrInvalidInput, s)
}

// Label is the display form used in announcements ("Tryout", "Training").
func (k Kind) Label() string {
	switch k {
	case KindTryout:
		return "Tryout"
	case KindTraining:
		return "Training"
	}
	return string(k)
}

// Bounds is the inclusive range of pad numbers a guild may use.
type Bounds struct {
	Min int
	Max int
}

// DefaultBounds matches the nine pads of the base.
var DefaultBounds = Bounds{Min: 1, Max: 9}

func (b Bounds) Contains(pad int) bool {
	return pad >= b.Min && pad <= b.Max
}

// Session is one active occupancy of a pad.
type Session struct {
	GuildID     string    `json:"guild_id"`
	Pad         int       `json:"pad_number"`
	Kind        Kind      `json:"session_kind"`
	OwnerID     string    `json:"owner_user_id"`
	Starts      string    `json:"starts"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}

// StartRequest carries the caller's input for a new session.
type StartRequest struct {
	GuildID     string
	Pad         int
	Kind        Kind
	OwnerID     string
	Starts      string
	Title       string
	Description string
}

// NewSession validates req and builds the session record. Text fields are trimmed.
func NewSession(req StartRequest, bounds Bounds, now time.Time) (*Session, error) {
	guildID := strings.TrimSpace(req.GuildID)
	ownerID := strings.TrimSpace(req.OwnerID)
	starts := strings.TrimSpace(req.Starts)

	if guildID == "" || ownerID == "" {
		return nil, fmt.Errorf("%w: guild and owner are required", ErrInvalidInput)
	}
	if starts == "" {
		return nil, fmt.Errorf("%w: start time must not be empty", ErrInvalidInput)
	}
	if req.Kind != KindTryout && req.Kind != KindTraining {
		return nil, fmt.Errorf("%w: unknown session kind %q", ErrInvalidInput, req.Kind)
	}
	if !bounds.Contains(req.Pad) {
		return nil, fmt.Errorf("%w: pad %d not in %d..%d", ErrPadOutOfRange, req.Pad, bounds.Min, bounds.Max)
	}

	return &Session{
		GuildID:     guildID,
		Pad:         req.Pad,
		Kind:        req.Kind,
		OwnerID:     ownerID,
		Starts:      starts,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		StartedAt:   now.UTC(),
	}, nil
}

// Elapsed returns how long the session has been running at now.
func (s Session) Elapsed(now time.Time) time.Duration {
	d := now.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Ended describes a session that was just closed.
type Ended struct {
	Session  Session       `json:"session"`
	EndedBy  string        `json:"ended_by"`
	EndedAt  time.Time     `json:"ended_at"`
	Duration time.Duration `json:"duration_ns"`
}
