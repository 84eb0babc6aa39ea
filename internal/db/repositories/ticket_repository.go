package repositories

import (
	"context"
	"errors"
	"fmt"

	gormModels "infinite-experiment/garrison/internal/models/gorm"

	"gorm.io/gorm"
)

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrTicketExists   = errors.New("user already has an open ticket")
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// AddRole returns false when the role was already registered.
func (r *TicketRepository) AddRole(ctx context.Context, guildID, roleID string) (bool, error) {
	err := r.db.WithContext(ctx).Create(&gormModels.TicketRole{GuildID: guildID, RoleID: roleID}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to add ticket role: %w", err)
	}
	return true, nil
}

func (r *TicketRepository) RemoveRole(ctx context.Context, guildID, roleID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("guild_id = ? AND role_id = ?", guildID, roleID).
		Delete(&gormModels.TicketRole{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to remove ticket role: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *TicketRepository) ListRoles(ctx context.Context, guildID string) ([]string, error) {
	var roleIDs []string
	err := r.db.WithContext(ctx).
		Model(&gormModels.TicketRole{}).
		Where("guild_id = ?", guildID).
		Order("added_at").
		Pluck("role_id", &roleIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket roles: %w", err)
	}
	return roleIDs, nil
}

// Open records a ticket. A user may hold one open ticket per guild.
func (r *TicketRepository) Open(ctx context.Context, t *gormModels.ActiveTicket) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&gormModels.ActiveTicket{}).
			Where("guild_id = ? AND user_id = ?", t.GuildID, t.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrTicketExists
		}
		return tx.Create(t).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrTicketExists
	}
	if err != nil && !errors.Is(err, ErrTicketExists) {
		return fmt.Errorf("failed to open ticket: %w", err)
	}
	return err
}

func (r *TicketRepository) GetByChannel(ctx context.Context, channelID string) (*gormModels.ActiveTicket, error) {
	var t gormModels.ActiveTicket
	err := r.db.WithContext(ctx).Where("channel_id = ?", channelID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to fetch ticket: %w", err)
	}
	return &t, nil
}

func (r *TicketRepository) GetByUser(ctx context.Context, guildID, userID string) (*gormModels.ActiveTicket, error) {
	var t gormModels.ActiveTicket
	err := r.db.WithContext(ctx).Where("guild_id = ? AND user_id = ?", guildID, userID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to fetch ticket: %w", err)
	}
	return &t, nil
}

func (r *TicketRepository) DeleteByChannel(ctx context.Context, channelID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("channel_id = ?", channelID).Delete(&gormModels.ActiveTicket{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to close ticket: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
