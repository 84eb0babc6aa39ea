package auth

import "infinite-experiment/garrison/internal/constants"

// UserClaims identifies the Discord member a bot request acts for.
type UserClaims interface {
	Source() string
	DiscordUserID() string
	DiscordServerID() string
	// Elevated is true for the guild owner or an administrator.
	Elevated() bool
	// RoleIDs are the member's Discord role ids, when the caller supplies them.
	RoleIDs() []string
}

type JWTClaims struct {
	UserID     string
	GuildID    string
	IsElevated bool
	TokenID    string
	Roles      []string
}

func (c *JWTClaims) Source() string          { return string(constants.RequestSourceJWT) }
func (c *JWTClaims) DiscordUserID() string   { return c.UserID }
func (c *JWTClaims) DiscordServerID() string { return c.GuildID }
func (c *JWTClaims) Elevated() bool          { return c.IsElevated }
func (c *JWTClaims) RoleIDs() []string       { return c.Roles }

type APIKeyClaims struct {
	DiscordUIDVal      string
	DiscordServerIDVal string
	ElevatedVal        bool
	RoleIDsVal         []string
}

func (c *APIKeyClaims) Source() string          { return string(constants.RequestSourceAPIKey) }
func (c *APIKeyClaims) DiscordUserID() string   { return c.DiscordUIDVal }
func (c *APIKeyClaims) DiscordServerID() string { return c.DiscordServerIDVal }
func (c *APIKeyClaims) Elevated() bool          { return c.ElevatedVal }
func (c *APIKeyClaims) RoleIDs() []string       { return c.RoleIDsVal }
