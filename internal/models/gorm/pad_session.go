package gorm

import "time"

type ActivePadSession struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement"`
	GuildID     string    `gorm:"column:guild_id;not null;uniqueIndex:idx_pad_guild_pad;uniqueIndex:idx_pad_guild_user"`
	PadNumber   int       `gorm:"column:pad_number;not null;uniqueIndex:idx_pad_guild_pad"`
	UserID      string    `gorm:"column:user_id;not null;uniqueIndex:idx_pad_guild_user"`
	SessionType string    `gorm:"column:session_type;not null"`
	Starts      string    `gorm:"column:starts;not null"`
	Title       string    `gorm:"column:title"`
	Description string    `gorm:"column:description"`
	StartedAt   time.Time `gorm:"column:started_at;not null"`
}

// TableName specifies the table name for GORM
func (ActivePadSession) TableName() string {
	return "active_pad_sessions"
}
