// Package cache keeps a read-through copy of user records in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shareit/pkg/config"
	"shareit/pkg/models"

	"github.com/redis/go-redis/v9"
)

// UserCache is consulted before the users table. Implementations must treat
// a miss as (nil, nil).
type UserCache interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	Set(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}

// NewRedisClient returns nil when no address is configured.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	if cfg.Address == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisUserCache(client *redis.Client, ttl time.Duration) *RedisUserCache {
	return &RedisUserCache{client: client, ttl: ttl}
}

type cachedUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func userKey(id int64) string {
	return fmt.Sprintf("shareit:user:%d", id)
}

func (c *RedisUserCache) Get(ctx context.Context, id int64) (*models.User, error) {
	val, err := c.client.Get(ctx, userKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user from redis: %w", err)
	}

	var u cachedUser
	if err := json.Unmarshal([]byte(val), &u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &models.User{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

func (c *RedisUserCache) Set(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(cachedUser{ID: user.ID, Name: user.Name, Email: user.Email})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := c.client.Set(ctx, userKey(user.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set user in redis: %w", err)
	}
	return nil
}

func (c *RedisUserCache) Delete(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, userKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete user from redis: %w", err)
	}
	return nil
}

// Noop is used when Redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, int64) (*models.User, error) { return nil, nil }
func (Noop) Set(context.Context, *models.User) error          { return nil }
func (Noop) Delete(context.Context, int64) error              { return nil }
