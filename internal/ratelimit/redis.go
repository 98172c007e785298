package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var redisFixedWindowScript = redis.NewScript(`
local window_ms = tonumber(ARGV[1])
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if count == 1 or ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], window_ms)
  ttl = window_ms
end
return {count, ttl}
`)

// RedisStore keeps fixed-window counters in Redis so that every instance shares them.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore returns a store using client. Keys are namespaced by prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Check counts one request against key.
func (s *RedisStore) Check(ctx context.Context, key string, maxRequests int, window time.Duration) (Decision, error) {
	if s.client == nil {
		return Decision{}, errors.New("redis client is nil")
	}
	if maxRequests <= 0 || window <= 0 {
		return Decision{}, errors.Errorf("invalid limit %d per %s", maxRequests, window)
	}
	windowMS := window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1
	}

	now := s.now()
	raw, err := redisFixedWindowScript.Run(ctx, s.client, []string{s.prefix + ":" + key}, windowMS).Result()
	if err != nil {
		return Decision{}, errors.Wrap(err, "failed to run rate limit script")
	}
	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return Decision{}, errors.New("unexpected redis script response")
	}
	count, err := parseRedisInt64(values[0])
	if err != nil {
		return Decision{}, err
	}
	ttl, err := parseRedisInt64(values[1])
	if err != nil {
		return Decision{}, err
	}
	if ttl < 0 {
		ttl = windowMS
	}
	if count > math.MaxInt32 {
		count = math.MaxInt32
	}
	return decide(int(count), maxRequests, now.Add(time.Duration(ttl)*time.Millisecond)), nil
}

func parseRedisInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, errors.Errorf("unexpected redis response type %T", v)
	}
}
