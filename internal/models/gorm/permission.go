package gorm

import (
	"infinite-experiment/garrison/internal/constants"
	"time"
)

type UserPermission struct {
	ID             uint                     `gorm:"column:id;primaryKey;autoIncrement"`
	GuildID        string                   `gorm:"column:guild_id;not null;uniqueIndex:idx_perm_guild_user_type"`
	UserID         string                   `gorm:"column:user_id;not null;uniqueIndex:idx_perm_guild_user_type"`
	PermissionType constants.PermissionType `gorm:"column:permission_type;not null;uniqueIndex:idx_perm_guild_user_type"`
	GrantedBy      string                   `gorm:"column:granted_by"`
	GrantedAt      time.Time                `gorm:"column:granted_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (UserPermission) TableName() string {
	return "user_permissions"
}
