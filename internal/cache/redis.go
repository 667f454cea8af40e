// Package cache provides a short-lived Redis cache for progress snapshots,
// so the dashboard can poll the read API at high frequency without hitting
// Postgres on every call. The cache is strictly optional: all state it holds
// is derived and re-readable from the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codetrail-lms/apiserver/config"
	"github.com/codetrail-lms/apiserver/types"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when no snapshot is cached for the user.
var ErrMiss = errors.New("cache miss")

// ProgressCache stores serialized progress snapshots keyed by user id.
type ProgressCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProgressCache connects to Redis and verifies the connection.
func NewProgressCache(ctx context.Context, cfg config.RedisConfig) (*ProgressCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &ProgressCache{client: client, ttl: ttl}, nil
}

// Get returns the cached snapshot for a user, or ErrMiss.
func (c *ProgressCache) Get(ctx context.Context, userID int) (types.ProgressSnapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.ProgressSnapshot{}, ErrMiss
		}
		return types.ProgressSnapshot{}, err
	}

	var snapshot types.ProgressSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return types.ProgressSnapshot{}, err
	}
	return snapshot, nil
}

// Set stores a snapshot for a user with the configured TTL.
func (c *ProgressCache) Set(ctx context.Context, userID int, snapshot types.ProgressSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(userID), data, c.ttl).Err()
}

// Invalidate drops the cached snapshot after a user's progress changes.
func (c *ProgressCache) Invalidate(ctx context.Context, userID int) error {
	return c.client.Del(ctx, snapshotKey(userID)).Err()
}

// Close closes the underlying client.
func (c *ProgressCache) Close() error {
	return c.client.Close()
}

func snapshotKey(userID int) string {
	return fmt.Sprintf("progress:snapshot:%d", userID)
}
