package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RDB is the global Redis client (token denylist)
var RDB *redis.Client

// ConnectRedis establishes connection to Redis
func ConnectRedis(cfg *Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	RDB = rdb

	log.Printf("✅ Redis connected successfully [%s]", cfg.Redis.Addr)
	return rdb, nil
}

// CloseRedis closes the Redis connection
func CloseRedis() error {
	if RDB == nil {
		return nil
	}
	return RDB.Close()
}
