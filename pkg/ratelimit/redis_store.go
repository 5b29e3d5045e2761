package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// incrWithExpiry increments the counter and sets its expiry only when the
// increment started a fresh window, returning the count and remaining TTL
// in one round trip.
var incrWithExpiry = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// RedisStore implements Store on a Redis client so rate limits hold across
// multiple application instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed rate limit store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	res, err := incrWithExpiry.Run(ctx, s.client, []string{redisKeyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, err
	}

	count := res[0]
	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		// PTTL reports a negative value for keys without expiry; treat the
		// window as freshly started rather than permanently exhausted.
		ttl = window
	}

	return count, time.Now().Add(ttl), nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key).Err()
}
