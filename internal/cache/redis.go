package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/example/masterybot/internal/logger"
	"github.com/example/masterybot/pkg/models"
)

const keyPrefix = "mastery:bkt:"

// RedisParamCache shares tuned parameters between processes.
type RedisParamCache struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewRedisParamCache connects to addr and verifies the connection.
func NewRedisParamCache(addr string, ttl time.Duration, log *logger.Logger) (*RedisParamCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisParamCache{rdb: rdb, ttl: ttl, log: log.With("component", "param_cache")}, nil
}

func (c *RedisParamCache) Get(ctx context.Context, key string) (models.BKTParams, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return models.BKTParams{}, false, nil
	}
	if err != nil {
		return models.BKTParams{}, false, fmt.Errorf("redis get: %w", err)
	}
	var p models.BKTParams
	if err := json.Unmarshal(raw, &p); err != nil {
		c.log.Warn("dropping unreadable cache entry", "key", key, "error", err)
		return models.BKTParams{}, false, nil
	}
	return p, true, nil
}

func (c *RedisParamCache) Set(ctx context.Context, key string, p models.BKTParams) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisParamCache) Close() error {
	return c.rdb.Close()
}
