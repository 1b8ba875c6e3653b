package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Cheertaboi/smaphregi/internal/session"
)

const SessionKeyPrefix = "smaphregi:session:"

// RedisSessionCache stores sessions as JSON values with a sliding TTL.
type RedisSessionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionCache(rdb *redis.Client, ttl time.Duration) *RedisSessionCache {
	return &RedisSessionCache{rdb: rdb, ttl: ttl}
}

func (c *RedisSessionCache) Get(ctx context.Context, id string) (*session.Session, error) {
	raw, err := c.rdb.Get(ctx, SessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (c *RedisSessionCache) Save(ctx context.Context, s *session.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := c.rdb.Set(ctx, SessionKeyPrefix+s.ID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (c *RedisSessionCache) Delete(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, SessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
