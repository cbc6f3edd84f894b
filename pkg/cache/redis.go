package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/curvelaunch/launchpad-go/pkg/api"
)

// RedisConfig wires a Redis-backed token cache.
type RedisConfig struct {
	Address   string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
	UseTLS    bool
}

// RedisCache stores tokens as JSON values with a shared TTL so multiple CLI
// invocations can reuse fetched metadata.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects and pings the server before returning.
func NewRedisCache(ctx context.Context, cfg *RedisConfig) (*RedisCache, error) {
	opts := &redis.Options{
		Addr:     cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "curvelaunch:token"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}, nil
}

func (c *RedisCache) key(address string) string {
	return c.prefix + ":" + address
}

func (c *RedisCache) Get(ctx context.Context, address string) (*api.Token, error) {
	data, err := c.client.Get(ctx, c.key(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: redis get: %w", err)
	}
	var tok api.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		// Treat a corrupt value as a miss and evict it.
		c.client.Del(ctx, c.key(address))
		return nil, ErrMiss
	}
	return &tok, nil
}

func (c *RedisCache) Set(ctx context.Context, token *api.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("cache: encode token: %w", err)
	}
	if err := c.client.Set(ctx, c.key(token.Address), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, address string) error {
	if err := c.client.Del(ctx, c.key(address)).Err(); err != nil {
		return fmt.Errorf("cache: redis del: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
