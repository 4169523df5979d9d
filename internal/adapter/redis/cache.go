// Package redis implements the shared cache of fetched section templates.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/heartmarshall/presence-dashboard/internal/config"
)

const keyPrefix = "dashboard:template:"

// NewClient creates a Redis client from config.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// TemplateCache stores template markup by name with a fixed TTL.
type TemplateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTemplateCache creates a template cache over client.
func NewTemplateCache(client *redis.Client, ttl time.Duration) *TemplateCache {
	return &TemplateCache{client: client, ttl: ttl}
}

// Get returns the cached markup. ok is false on a miss.
func (c *TemplateCache) Get(ctx context.Context, name string) (markup string, ok bool, err error) {
	markup, err = c.client.Get(ctx, keyPrefix+name).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", name, err)
	}
	return markup, true, nil
}

// Set stores markup under name.
func (c *TemplateCache) Set(ctx context.Context, name, markup string) error {
	if err := c.client.Set(ctx, keyPrefix+name, markup, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}

// Ping checks the connection.
func (c *TemplateCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
