package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// clientOptions tunes the client for this service's traffic: schedule lock
// acquire/release and event publishes, all small single-key commands issued
// from request handlers. Command timeouts must stay below the lock TTL.
func clientOptions(addr, username, password string) *redis.Options {
	return &redis.Options{
		Addr:            addr,
		Username:        username,
		Password:        password,
		DB:              0,
		DialTimeout:     3 * time.Second,
		ReadTimeout:     500 * time.Millisecond,
		WriteTimeout:    500 * time.Millisecond,
		MaxRetries:      1,
		PoolSize:        16,
		MinIdleConns:    2,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

func NewRedisClient(addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(clientOptions(addr, username, password))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}
