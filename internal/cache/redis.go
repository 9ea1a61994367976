// Package cache keeps collected host intel in Redis so repeat hosts are not
// probed again within a TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
)

// Config holds Redis connection configuration.
type Config struct {
	Address  string
	Password string
	DB       int
}

// ErrEmptyAddress is returned when Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

const (
	connectionTimeout = 5 * time.Second
	hostIntelPrefix   = "linkshield:intel:"
)

// NewClient creates a Redis client and verifies the connection.
func NewClient(cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// HostIntelCache stores HostIntel as JSON under a per-host key.
type HostIntelCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewHostIntelCache returns a cache whose entries expire after ttl.
func NewHostIntelCache(client redis.UniversalClient, ttl time.Duration) *HostIntelCache {
	return &HostIntelCache{client: client, ttl: ttl}
}

// Key returns the Redis key for host.
func Key(host string) string {
	return hostIntelPrefix + host
}

// Get returns the cached intel for host, or nil when absent.
func (c *HostIntelCache) Get(ctx context.Context, host string) (*domain.HostIntel, error) {
	raw, err := c.client.Get(ctx, Key(host)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil //nolint:nilnil // cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("get host intel %s: %w", host, err)
	}

	var intel domain.HostIntel
	if err = json.Unmarshal(raw, &intel); err != nil {
		return nil, fmt.Errorf("decode host intel %s: %w", host, err)
	}
	return &intel, nil
}

// Set stores intel for host. URLID is not cached since intel is shared
// across every URL on the host.
func (c *HostIntelCache) Set(ctx context.Context, host string, intel domain.HostIntel) error {
	intel.URLID = 0

	raw, err := json.Marshal(intel)
	if err != nil {
		return fmt.Errorf("encode host intel %s: %w", host, err)
	}
	if err = c.client.Set(ctx, Key(host), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set host intel %s: %w", host, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (c *HostIntelCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
