package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis is a lock shared by every scheduler process using the same Redis.
// Each acquisition stores a random token so only the holder can release the key.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
	log    zerolog.Logger
}

// NewRedis builds a Redis lock. ttl bounds how long a crashed holder keeps the key.
func NewRedis(rdb redis.UniversalClient, prefix string, ttl time.Duration, log zerolog.Logger) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl, retry: 25 * time.Millisecond, log: log}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	full := r.prefix + key
	token := uuid.NewString()
	for {
		ok, err := r.rdb.SetNX(ctx, full, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", full, err)
		}
		if ok {
			break
		}
		t := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	r.log.Debug().Str("key", full).Msg("lock acquired")
	return func() {
		uctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := unlockScript.Run(uctx, r.rdb, []string{full}, token).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			r.log.Error().Err(err).Str("key", full).Msg("unlock failed")
			return
		}
		if n == 0 {
			r.log.Warn().Str("key", full).Msg("lock expired before release")
		}
	}, nil
}
