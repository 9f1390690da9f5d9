package store

import (
	"context"
	"errors"
	"fmt"

	"recipe-browser/internal/infrastructure/config"
	"recipe-browser/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Redis 以 Redis 保存計畫，不設過期時間
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis 連線並測試 Redis
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis 計畫儲存已連線",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.String("prefix", cfg.Prefix),
	)
	return &Redis{client: client, prefix: cfg.Prefix}, nil
}

// NewRedisFromClient 使用既有的 client
func NewRedisFromClient(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Get 實作 Store
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, common.ErrStoreUnavailable.Wrap(fmt.Errorf("failed to get %s: %w", key, err))
	}
	return data, true, nil
}

// Set 實作 Store
func (r *Redis) Set(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, data, 0).Err(); err != nil {
		return common.ErrStoreUnavailable.Wrap(fmt.Errorf("failed to set %s: %w", key, err))
	}
	return nil
}

// Ping 健康檢查用
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close 關閉連線
func (r *Redis) Close() error {
	return r.client.Close()
}
