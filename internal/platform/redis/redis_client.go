// Package redis opens the optional Redis connection used by the book cache.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bookstore_backend/internal/platform/config"
)

const pingTimeout = 3 * time.Second

// NewRedisClient returns a connected client, or nil when cfg.Host is empty.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*redis.Client, error) {
	if cfg.Host == "" {
		log.Info("redis disabled, book cache bypassed")
		return nil, nil
	}

	addr := cfg.Addr()
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       0,
	})

	// 接続確認
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		log.Error("Redis connection failed", zap.String("address", addr), zap.Error(err))
		return nil, err
	}

	log.Info("Redis connection successful", zap.String("address", addr))
	return rdb, nil
}
