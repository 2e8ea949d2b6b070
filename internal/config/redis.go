package config

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskhub/internal/logger"
)

const redisPingTimeout = 5 * time.Second

// NewRedisClient returns nil without error when REDIS_URL is empty; the unread-count cache is
// then disabled.
func NewRedisClient(cfg *Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opt.Addr, err)
	}

	logger.Log.WithField("addr", opt.Addr).Info("Connected to Redis")
	return client, nil
}
