package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiGentIsHere/Weblink-Shield/internal/cache"
	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
)

func newCache(t *testing.T, ttl time.Duration) (*cache.HostIntelCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewHostIntelCache(client, ttl), mr
}

func TestHostIntelCache_RoundTrip(t *testing.T) {
	t.Parallel()

	c, mr := newCache(t, time.Hour)
	ctx := context.Background()

	ip := "203.0.113.9"
	age := 12
	in := domain.HostIntel{
		URLID:      42,
		Domain:     "example.com",
		TLD:        "com",
		IP:         &ip,
		TLSAgeDays: &age,
		FetchedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	require.NoError(t, c.Set(ctx, "example.com", in))

	got, err := c.Get(ctx, "example.com")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, int64(0), got.URLID, "url id is not shared across urls")
	assert.Equal(t, "example.com", got.Domain)
	require.NotNil(t, got.IP)
	assert.Equal(t, ip, *got.IP)
	require.NotNil(t, got.TLSAgeDays)
	assert.Equal(t, 12, *got.TLSAgeDays)
	assert.Nil(t, got.DomainAgeDays)
	assert.True(t, in.FetchedAt.Equal(got.FetchedAt))

	assert.Equal(t, time.Hour, mr.TTL(cache.Key("example.com")))
}

func TestHostIntelCache_MissAndExpiry(t *testing.T) {
	t.Parallel()

	c, mr := newCache(t, time.Minute)
	ctx := context.Background()

	got, err := c.Get(ctx, "absent.example")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, "example.com", domain.HostIntel{Domain: "example.com"}))
	mr.FastForward(2 * time.Minute)

	got, err = c.Get(ctx, "example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHostIntelCache_CorruptEntry(t *testing.T) {
	t.Parallel()

	c, mr := newCache(t, time.Minute)
	require.NoError(t, mr.Set(cache.Key("bad.example"), "{not json"))

	_, err := c.Get(context.Background(), "bad.example")
	assert.Error(t, err)
}

func TestHostIntelCache_ServerDown(t *testing.T) {
	t.Parallel()

	c, mr := newCache(t, time.Minute)
	mr.Close()

	_, err := c.Get(context.Background(), "example.com")
	assert.Error(t, err)
	assert.Error(t, c.Ping(context.Background()))
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	_, err := cache.NewClient(cache.Config{})
	require.ErrorIs(t, err, cache.ErrEmptyAddress)

	mr := miniredis.RunT(t)
	client, err := cache.NewClient(cache.Config{Address: mr.Addr()})
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
