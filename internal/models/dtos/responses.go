package dtos

import (
	"time"

	"infinite-experiment/garrison/internal/pads"
	"infinite-experiment/garrison/internal/ranks"
	"infinite-experiment/garrison/internal/verification"
)

// PadStatus is one pad of the pad board.
type PadStatus struct {
	Pad       int           `json:"pad_number"`
	Available bool          `json:"available"`
	Session   *pads.Session `json:"session,omitempty"`
	Elapsed   string        `json:"elapsed,omitempty"`
}

type SessionStartedResponse struct {
	Session            pads.Session `json:"session"`
	HostRobloxUsername string       `json:"host_roblox_username,omitempty"`
	ControlExpiresAt   time.Time    `json:"control_expires_at"`
}

type SessionEndedResponse struct {
	Session  pads.Session `json:"session"`
	EndedBy  string       `json:"ended_by"`
	EndedAt  time.Time    `json:"ended_at"`
	Duration string       `json:"duration"`
	Seconds  int64        `json:"duration_seconds"`
}

// SessionConflictResponse is the data of a 409 on session start.
type SessionConflictResponse struct {
	Reason  string       `json:"reason"`
	Session pads.Session `json:"session"`
	Elapsed string       `json:"elapsed"`
}

type VerificationStartResponse struct {
	UserID         string    `json:"user_id"`
	RobloxUsername string    `json:"roblox_username"`
	RobloxID       int64     `json:"roblox_id"`
	ProfileURL     string    `json:"profile_url"`
	Code           string    `json:"code"`
	ExpiresAt      time.Time `json:"expires_at"`
	Instructions   []string  `json:"instructions"`
}

type VerificationCompleteResponse struct {
	Link           verification.VerifiedLink `json:"link"`
	ProfileURL     string                    `json:"profile_url"`
	Reconciliation *ranks.Result             `json:"reconciliation,omitempty"`
	ReconcileError string                    `json:"reconcile_error,omitempty"`
}

type LinkResponse struct {
	Link       verification.VerifiedLink   `json:"link"`
	ProfileURL string                      `json:"profile_url"`
	History    []verification.VerifiedLink `json:"history,omitempty"`
}

type PermissionsResponse struct {
	GuildID     string   `json:"guild_id"`
	UserID      string   `json:"user_id"`
	Permissions []string `json:"permissions"`
}

type TicketResponse struct {
	GuildID   string     `json:"guild_id"`
	UserID    string     `json:"user_id"`
	ChannelID string     `json:"channel_id"`
	Subject   string     `json:"subject,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ClosesAt  *time.Time `json:"closes_at,omitempty"`
}

type TicketRolesResponse struct {
	GuildID string   `json:"guild_id"`
	RoleIDs []string `json:"role_ids"`
}

type MemberCountResponse struct {
	GuildID     string    `json:"guild_id"`
	MemberCount int       `json:"member_count"`
	Online      int       `json:"online,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
