package cache

import (
	"context"
	"fmt"

	"wallet-bundle-analyzer/internal/infrastructure/config"
	"wallet-bundle-analyzer/internal/infrastructure/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NewRedisClient connects to redis and verifies the connection with a ping
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig, logger *logger.Logger) (*redis.Client, error) {
	log := logger.WithComponent("redis-client")

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info("Connected to redis", zap.String("addr", cfg.Addr), zap.String("pong", pong))
	return client, nil
}
