package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sergeyvolkov/vk-dating-bot/internal/config"
)

// Session TTLs. A shown candidate stays actionable for a day; the
// registration debounce keeps VK from being re-fetched on every message.
const (
	SessionTTL     = 24 * time.Hour
	IngestMarkTTL  = 15 * time.Minute
	sessionKeyFmt  = "session:candidate:%d"
	ingestedKeyFmt = "ingest:recent:%d"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes the Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// SaveSession stores the serialized "candidate on screen" state for a chat.
func (c *RedisCache) SaveSession(ctx context.Context, vkUserID int64, payload string) error {
	key := fmt.Sprintf(sessionKeyFmt, vkUserID)
	return c.Client.Set(ctx, key, payload, SessionTTL).Err()
}

// LoadSession returns the stored session payload, or "" on a cache miss.
func (c *RedisCache) LoadSession(ctx context.Context, vkUserID int64) (string, error) {
	key := fmt.Sprintf(sessionKeyFmt, vkUserID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	// refresh TTL while the chat is active
	_ = c.Client.Expire(ctx, key, SessionTTL).Err()
	return val, nil
}

// ClearSession drops the session entry for a chat.
func (c *RedisCache) ClearSession(ctx context.Context, vkUserID int64) error {
	return c.Client.Del(ctx, fmt.Sprintf(sessionKeyFmt, vkUserID)).Err()
}

// MarkIngested records that a user's profile was just synced from VK.
func (c *RedisCache) MarkIngested(ctx context.Context, vkUserID int64) error {
	key := fmt.Sprintf(ingestedKeyFmt, vkUserID)
	return c.Client.Set(ctx, key, "1", IngestMarkTTL).Err()
}

// RecentlyIngested reports whether the debounce mark is still fresh.
func (c *RedisCache) RecentlyIngested(ctx context.Context, vkUserID int64) (bool, error) {
	key := fmt.Sprintf(ingestedKeyFmt, vkUserID)
	_, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}
