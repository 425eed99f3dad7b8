package db

import (
	"context"
	"time"

	"github.com/otcboard/otcboard-server/cmd/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis for the screener read cache. The caller
// may treat a failed connection as non-fatal and run without caching.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}
