// internal/session/redis.go
//
// Redis-backed session store for multi-instance deployments.
//
// Keys are "sitecraft:session:<id>" holding the JSON-encoded Data with a
// TTL equal to the session lifetime, so Redis handles expiry.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "sitecraft:session:"

// Redis implements Store on a go-redis client.
type Redis struct {
	rdb *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

// DialRedis builds a client and pings it once.
func DialRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return NewRedis(rdb), nil
}

func redisKey(id string) string { return redisKeyPrefix + id }

func (s *Redis) Load(ctx context.Context, id string) (Data, error) {
	b, err := s.rdb.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Data{}, ErrNotFound
	}
	if err != nil {
		return Data{}, err
	}
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return Data{}, err
	}
	return d, nil
}

func (s *Redis) Save(ctx context.Context, id string, d Data, ttl time.Duration) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisKey(id), b, ttl).Err()
}

func (s *Redis) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, redisKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the client.
func (s *Redis) Close() error { return s.rdb.Close() }
