package gorm

import "time"

// ApiKey is read through sqlx by the auth middleware; gorm only creates the table.
type ApiKey struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Label     string    `gorm:"column:label"`
	Status    bool      `gorm:"column:status;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (ApiKey) TableName() string {
	return "api_keys"
}
