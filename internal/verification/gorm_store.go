package verification

import (
	"context"
	"errors"
	"fmt"

	gormModels "infinite-experiment/garrison/internal/models/gorm"

	"gorm.io/gorm"
)

// GormStore keeps challenges in pending_verifications and links in
// roblox_verifications. Superseded links stay with is_active = false.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ReplacePending(ctx context.Context, p PendingVerification) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", p.UserID).Delete(&gormModels.PendingVerification{}).Error; err != nil {
			return fmt.Errorf("failed to clear pending verification: %w", err)
		}
		row := gormModels.PendingVerification{
			UserID:         p.UserID,
			GuildID:        p.GuildID,
			RobloxUsername: p.RobloxUsername,
			Code:           p.Code,
			CreatedAt:      p.CreatedAt,
			ExpiresAt:      p.ExpiresAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to store pending verification: %w", err)
		}
		return nil
	})
}

func (s *GormStore) GetPending(ctx context.Context, userID string) (*PendingVerification, error) {
	var row gormModels.PendingVerification
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPendingVerification
		}
		return nil, fmt.Errorf("failed to fetch pending verification: %w", err)
	}
	return &PendingVerification{
		UserID:         row.UserID,
		GuildID:        row.GuildID,
		RobloxUsername: row.RobloxUsername,
		Code:           row.Code,
		CreatedAt:      row.CreatedAt.UTC(),
		ExpiresAt:      row.ExpiresAt.UTC(),
	}, nil
}

func (s *GormStore) DeletePending(ctx context.Context, userID string) (bool, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&gormModels.PendingVerification{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete pending verification: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) Activate(ctx context.Context, link VerifiedLink) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&gormModels.RobloxVerification{}).
			Where("guild_id = ? AND user_id = ? AND is_active = ?", link.GuildID, link.UserID, true).
			Update("is_active", false).Error
		if err != nil {
			return fmt.Errorf("failed to deactivate previous link: %w", err)
		}

		row := gormModels.RobloxVerification{
			GuildID:        link.GuildID,
			UserID:         link.UserID,
			RobloxUsername: link.RobloxUsername,
			RobloxID:       link.RobloxID,
			VerifiedAt:     link.VerifiedAt,
			IsActive:       true,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to store verification: %w", err)
		}

		if err := tx.Where("user_id = ?", link.UserID).Delete(&gormModels.PendingVerification{}).Error; err != nil {
			return fmt.Errorf("failed to clear pending verification: %w", err)
		}
		return nil
	})
}

func (s *GormStore) GetActive(ctx context.Context, guildID, userID string) (*VerifiedLink, error) {
	var row gormModels.RobloxVerification
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ? AND is_active = ?", guildID, userID, true).
		Order("verified_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotVerified
		}
		return nil, fmt.Errorf("failed to fetch verification: %w", err)
	}
	link := linkFromRow(row)
	return &link, nil
}

func (s *GormStore) History(ctx context.Context, guildID, userID string) ([]VerifiedLink, error) {
	var rows []gormModels.RobloxVerification
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Order("verified_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}
	out := make([]VerifiedLink, 0, len(rows))
	for _, r := range rows {
		out = append(out, linkFromRow(r))
	}
	return out, nil
}

func linkFromRow(row gormModels.RobloxVerification) VerifiedLink {
	return VerifiedLink{
		GuildID:        row.GuildID,
		UserID:         row.UserID,
		RobloxUsername: row.RobloxUsername,
		RobloxID:       row.RobloxID,
		VerifiedAt:     row.VerifiedAt.UTC(),
		IsActive:       row.IsActive,
	}
}
