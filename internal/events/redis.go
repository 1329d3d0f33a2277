package events

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes events on Redis Pub/Sub, one channel per event type:
// "<prefix>:<type>".
type RedisPublisher struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisPublisher(rdb redis.UniversalClient, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = "schedule"
	}
	return &RedisPublisher{rdb: rdb, prefix: prefix}
}

// Channel returns the Pub/Sub channel used for t.
func (p *RedisPublisher) Channel(t Type) string {
	return p.prefix + ":" + string(t)
}

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.rdb.Publish(ctx, p.Channel(evt.Type), data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	return nil
}
