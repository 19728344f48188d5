package kvredis

import (
	"context"
	"fmt"
	"time"

	"xiuxian/internal/app/ports"

	"github.com/redis/go-redis/v9"
)

var compareAndDeleteScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var decrementWithFloorScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current then
  current = tonumber(current)
else
  current = tonumber(ARGV[1])
end
local delta = tonumber(ARGV[2])
if current - delta < 0 then
  redis.call("SET", KEYS[1], current)
  return {current, 0}
end
current = current - delta
redis.call("SET", KEYS[1], current)
return {current, 1}
`)

var incrementWithCeilingScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
local ceiling = tonumber(ARGV[2])
if not current then
  return ceiling
end
current = tonumber(current) + tonumber(ARGV[1])
if current > ceiling then
  current = ceiling
end
redis.call("SET", KEYS[1], current)
return current
`)

type Store struct {
	client redis.UniversalClient
}

func New(client redis.UniversalClient) Store {
	return Store{client: client}
}

func Open(ctx context.Context, url string) (Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return Store{}, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return Store{}, fmt.Errorf("%w: ping redis: %v", ports.ErrUnavailable, err)
	}
	return Store{client: client}, nil
}

func (s Store) Close() error {
	return s.client.Close()
}

func (s Store) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: setnx %s: %v", ports.ErrUnavailable, key, err)
	}
	return ok, nil
}

func (s Store) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	n, err := compareAndDeleteScript.Run(ctx, s.client, []string{key}, value).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: compare-and-delete %s: %v", ports.ErrUnavailable, key, err)
	}
	return n == 1, nil
}

func (s Store) DecrementWithFloor(ctx context.Context, key string, initial, delta int64) (int64, bool, error) {
	vals, err := decrementWithFloorScript.Run(ctx, s.client, []string{key}, initial, delta).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("%w: decrement %s: %v", ports.ErrUnavailable, key, err)
	}
	if len(vals) != 2 {
		return 0, false, fmt.Errorf("decrement %s: unexpected reply %v", key, vals)
	}
	return vals[0], vals[1] == 1, nil
}

func (s Store) IncrementWithCeiling(ctx context.Context, key string, delta, ceiling int64) (int64, error) {
	n, err := incrementWithCeilingScript.Run(ctx, s.client, []string{key}, delta, ceiling).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: increment %s: %v", ports.ErrUnavailable, key, err)
	}
	return n, nil
}
