// Package redis keeps the storefront's durable credential store in Redis so
// several client processes can share one set of role records.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dialTimeout = 5 * time.Second

// Config locates the Redis instance backing the durable store.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds dialing, each command and the startup ping.
	Timeout time.Duration
}

// Connect opens the durable-store connection and fails fast when the
// instance does not answer a ping.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = dialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("durable store at %s unreachable: %w", cfg.Addr, err)
	}
	return client, nil
}
