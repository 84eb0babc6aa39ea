package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStreamPublisher appends events to a Redis stream.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisStreamPublisher(client *redis.Client, stream string) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: 10000}
}

// Publish runs XADD stream MAXLEN ~ n * type <type> data <json>
func (p *RedisStreamPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type": e.Type,
			"data": string(data),
		},
	}
	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}
	return nil
}

// Close is a no-op; the client is shared and closed by its owner.
func (p *RedisStreamPublisher) Close() error { return nil }

// Len returns the number of entries in the stream.
func (p *RedisStreamPublisher) Len(ctx context.Context) (int64, error) {
	return p.client.XLen(ctx, p.stream).Result()
}
