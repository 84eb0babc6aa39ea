package pads

import (
	"context"
	"errors"
	"fmt"

	gormModels "infinite-experiment/garrison/internal/models/gorm"

	"gorm.io/gorm"
)

// GormStore persists sessions in active_pad_sessions so they survive restarts.
// The db must be opened with TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, guildID string, pad int) (*Session, error) {
	var row gormModels.ActivePadSession
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND pad_number = ?", guildID, pad).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to fetch pad session: %w", err)
	}
	sess := fromRow(row)
	return &sess, nil
}

func (s *GormStore) List(ctx context.Context, guildID string) ([]Session, error) {
	var rows []gormModels.ActivePadSession
	err := s.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Order("pad_number").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pad sessions: %w", err)
	}
	return fromRows(rows), nil
}

func (s *GormStore) ListByOwner(ctx context.Context, guildID, ownerID string) ([]Session, error) {
	var rows []gormModels.ActivePadSession
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ?", guildID, ownerID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pad sessions for user: %w", err)
	}
	return fromRows(rows), nil
}

func (s *GormStore) Insert(ctx context.Context, sess Session) error {
	row := gormModels.ActivePadSession{
		GuildID:     sess.GuildID,
		PadNumber:   sess.Pad,
		UserID:      sess.OwnerID,
		SessionType: string(sess.Kind),
		Starts:      sess.Starts,
		Title:       sess.Title,
		Description: sess.Description,
		StartedAt:   sess.StartedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert pad session: %w", err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, guildID string, pad int) (*Session, error) {
	var removed *Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row gormModels.ActivePadSession
		if err := tx.Where("guild_id = ? AND pad_number = ?", guildID, pad).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to fetch pad session: %w", err)
		}
		if err := tx.Delete(&row).Error; err != nil {
			return fmt.Errorf("failed to delete pad session: %w", err)
		}
		sess := fromRow(row)
		removed = &sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func fromRow(row gormModels.ActivePadSession) Session {
	return Session{
		GuildID:     row.GuildID,
		Pad:         row.PadNumber,
		Kind:        Kind(row.SessionType),
		OwnerID:     row.UserID,
		Starts:      row.Starts,
		Title:       row.Title,
		Description: row.Description,
		StartedAt:   row.StartedAt.UTC(),
	}
}

func fromRows(rows []gormModels.ActivePadSession) []Session {
	out := make([]Session, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out
}
