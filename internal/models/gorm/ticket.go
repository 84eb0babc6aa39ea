package gorm

import "time"

// TicketRole is a role whose holders can see and close tickets.
type TicketRole struct {
	ID      uint      `gorm:"column:id;primaryKey;autoIncrement"`
	GuildID string    `gorm:"column:guild_id;not null;uniqueIndex:idx_ticket_role"`
	RoleID  string    `gorm:"column:role_id;not null;uniqueIndex:idx_ticket_role"`
	AddedAt time.Time `gorm:"column:added_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (TicketRole) TableName() string {
	return "ticket_roles"
}

type ActiveTicket struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	GuildID   string    `gorm:"column:guild_id;not null;uniqueIndex:idx_ticket_guild_user"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:idx_ticket_guild_user"`
	ChannelID string    `gorm:"column:channel_id;not null;uniqueIndex"`
	Subject   string    `gorm:"column:subject"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (ActiveTicket) TableName() string {
	return "active_tickets"
}
