// Package verification links a Discord member to a Roblox account by asking
// them to put a short code in their Roblox profile description.
package verification

import (
	"context"
	"fmt"
	"time"
)

const (
	// CodeLength is the number of characters in a challenge code.
	CodeLength = 8
	// DefaultTTL is how long a challenge stays valid.
	DefaultTTL = 30 * time.Minute
)

// PendingVerification is an open challenge for one user.
type PendingVerification struct {
	UserID         string    `json:"user_id"`
	GuildID        string    `json:"guild_id"`
	RobloxUsername string    `json:"roblox_username"`
	Code           string    `json:"code"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Expired reports whether the challenge deadline has passed at now.
func (p PendingVerification) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// VerifiedLink binds a guild member to a Roblox account.
type VerifiedLink struct {
	GuildID        string    `json:"guild_id"`
	UserID         string    `json:"user_id"`
	RobloxUsername string    `json:"roblox_username"`
	RobloxID       int64     `json:"roblox_id"`
	VerifiedAt     time.Time `json:"verified_at"`
	IsActive       bool      `json:"is_active"`
}

// ProfileURL is the public Roblox profile page of the linked account.
func (l VerifiedLink) ProfileURL() string {
	return ProfileURL(l.RobloxID)
}

func ProfileURL(robloxID int64) string {
	return fmt.Sprintf("https://www.roblox.com/users/%d/profile", robloxID)
}

// GroupRank is a user's standing in one Roblox group.
type GroupRank struct {
	IsMember bool   `json:"is_member"`
	RankName string `json:"rank_name,omitempty"`
	Rank     int    `json:"rank,omitempty"`
}

// ProfileClient reads public Roblox data. Implementations return an error only
// for transport or service failures; "not found" is reported through found.
type ProfileClient interface {
	ResolveUsername(ctx context.Context, username string) (id int64, found bool, err error)
	FetchDescription(ctx context.Context, robloxID int64) (string, error)
	FetchGroupRank(ctx context.Context, robloxID, groupID int64) (GroupRank, error)
}
