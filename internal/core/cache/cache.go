package cache

import (
	"context"
	"fmt"

	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"go.uber.org/zap"
)

// Store 字串鍵值快取；Get 未命中時回傳 common.ErrCacheMiss
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Purge(ctx context.Context, prefix string) (int, error)
	GetStats() map[string]interface{}
	Close() error
}

// New 依設定建立快取；停用時回傳 nil
func New(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	if !cfg.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}

	switch cfg.Backend {
	case "redis":
		store, err := NewRedisStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		common.LogInfo("Redis 快取已連線", zap.String("addr", cfg.RedisAddr))
		return store, nil
	case "memory", "":
		return NewManager(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}
