package redisdb

import (
	"context"

	"github.com/redis/go-redis/v9"

	"go-debate/internal/config"
)

// NewClient builds the shared redis client used for login sessions.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// Ping verifies the connection, used at startup to surface a dead redis
// early instead of on the first login.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
