package repositories

import (
	"context"
	"errors"
	"fmt"

	"infinite-experiment/garrison/internal/constants"
	gormModels "infinite-experiment/garrison/internal/models/gorm"

	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// Grant adds the permissions that are missing. It returns the ones added.
func (r *PermissionRepository) Grant(ctx context.Context, guildID, userID, grantedBy string, perms []constants.PermissionType) ([]constants.PermissionType, error) {
	var added []constants.PermissionType
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range perms {
			row := gormModels.UserPermission{GuildID: guildID, UserID: userID, PermissionType: p, GrantedBy: grantedBy}
			err := tx.Create(&row).Error
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to grant %s: %w", p, err)
			}
			added = append(added, p)
		}
		return nil
	})
	return added, err
}

// Revoke removes the given permissions and returns how many rows went away.
func (r *PermissionRepository) Revoke(ctx context.Context, guildID, userID string, perms []constants.PermissionType) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ? AND permission_type IN ?", guildID, userID, perms).
		Delete(&gormModels.UserPermission{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to revoke permissions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *PermissionRepository) List(ctx context.Context, guildID, userID string) ([]constants.PermissionType, error) {
	var perms []constants.PermissionType
	err := r.db.WithContext(ctx).
		Model(&gormModels.UserPermission{}).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Order("permission_type").
		Pluck("permission_type", &perms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return perms, nil
}

func (r *PermissionRepository) Has(ctx context.Context, guildID, userID string, perm constants.PermissionType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.UserPermission{}).
		Where("guild_id = ? AND user_id = ? AND permission_type = ?", guildID, userID, perm).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}
	return count > 0, nil
}
