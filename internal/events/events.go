// Package events publishes domain events for the bot and other consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is one domain occurrence, serialised as JSON on every backend.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	GuildID    string                 `json:"guild_id"`
	UserID     string                 `json:"user_id,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType, guildID, userID string, data map[string]interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		GuildID:    guildID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher delivers events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}
