package events

import (
	"context"

	"infinite-experiment/garrison/internal/logging"
)

// LogPublisher only writes events to the structured log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, e Event) error {
	logging.Info("Event",
		"event_id", e.ID,
		"type", e.Type,
		"guild_id", e.GuildID,
		"user_id", e.UserID,
		"data", e.Data,
	)
	return nil
}

func (LogPublisher) Close() error { return nil }
