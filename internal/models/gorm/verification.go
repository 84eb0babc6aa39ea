package gorm

import "time"

// PendingVerification is an open challenge, at most one per user.
type PendingVerification struct {
	UserID         string    `gorm:"column:user_id;primaryKey"`
	GuildID        string    `gorm:"column:guild_id;not null"`
	RobloxUsername string    `gorm:"column:roblox_username;not null"`
	Code           string    `gorm:"column:verification_code;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
	ExpiresAt      time.Time `gorm:"column:expires_at;not null"`
}

// TableName specifies the table name for GORM
func (PendingVerification) TableName() string {
	return "pending_verifications"
}

// RobloxVerification keeps every link ever made; only one row per guild/user is active.
type RobloxVerification struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement"`
	GuildID        string    `gorm:"column:guild_id;not null;index:idx_rv_guild_user"`
	UserID         string    `gorm:"column:user_id;not null;index:idx_rv_guild_user"`
	RobloxUsername string    `gorm:"column:roblox_username;not null"`
	RobloxID       int64     `gorm:"column:roblox_id;not null"`
	VerifiedAt     time.Time `gorm:"column:verified_at;not null"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
}

// TableName specifies the table name for GORM
func (RobloxVerification) TableName() string {
	return "roblox_verifications"
}
