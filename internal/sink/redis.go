package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relabs-tech/gps_logger/internal/gps"
)

const KeyLatestFix = "gps:latest"

// RedisSetter is the part of *redis.Client used by the Redis sink.
type RedisSetter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Redis keeps the latest fix under a single key. The TTL makes a stale
// position disappear when the logger stops.
type Redis struct {
	client RedisSetter
	key    string
	ttl    time.Duration
}

func NewRedis(client RedisSetter, key string, ttl time.Duration) *Redis {
	if key == "" {
		key = KeyLatestFix
	}
	return &Redis{client: client, key: key, ttl: ttl}
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Write(ctx context.Context, f gps.Fix) error {
	data, err := encodeMessage(f)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", r.key, err)
	}
	return nil
}

// NewRedisClient creates a client for addr and checks the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
