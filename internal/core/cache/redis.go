package cache

import (
	"context"
	"errors"
	"fmt"

	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// keyPrefix 所有 redis 鍵的命名空間
const keyPrefix = "recipe-matcher:"

// RedisStore 以 Redis 實作的緩存
type RedisStore struct {
	client *redis.Client
	config config.CacheConfig
}

// NewRedisStore 創建 Redis 緩存並測試連線
func NewRedisStore(ctx context.Context, cfg config.CacheConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		config: cfg,
	}, nil
}

// Get 獲取緩存
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			common.LogCacheMiss("redis", key)
			return "", common.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}
	common.LogCacheHit("redis", key)
	return val, nil
}

// Set 設置緩存
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Purge 以 SCAN 找出符合前綴的鍵並刪除
func (s *RedisStore) Purge(ctx context.Context, prefix string) (int, error) {
	iter := s.client.Scan(ctx, 0, keyPrefix+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return int(n), nil
}

// GetStats 獲取緩存統計信息
func (s *RedisStore) GetStats() map[string]interface{} {
	stats := s.client.PoolStats()
	return map[string]interface{}{
		"backend":     "redis",
		"addr":        s.config.RedisAddr,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
	}
}

// Close 關閉 Redis 連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
