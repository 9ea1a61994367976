package intel

import (
	"context"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
	"github.com/SiGentIsHere/Weblink-Shield/internal/metrics"
)

// Cache stores collected intel by host.
type Cache interface {
	Get(ctx context.Context, host string) (*domain.HostIntel, error)
	Set(ctx context.Context, host string, intel domain.HostIntel) error
}

// CachedCollector serves repeat hosts from a cache. Cache failures are
// logged and fall through to the wrapped collector.
type CachedCollector struct {
	next    Collector
	cache   Cache
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewCachedCollector wraps next with cache.
func NewCachedCollector(next Collector, cache Cache, log logger.Logger, m *metrics.Metrics) *CachedCollector {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedCollector{next: next, cache: cache, log: log, metrics: m}
}

// Collect returns cached intel for host when present, otherwise collects and
// caches it. Cache misses are reported by Get as a nil intel and nil error.
func (c *CachedCollector) Collect(ctx context.Context, host string) domain.HostIntel {
	cached, err := c.cache.Get(ctx, host)
	switch {
	case err != nil:
		c.log.Warn("Host intel cache read failed", logger.String("host", host), logger.Error(err))
	case cached != nil:
		c.metrics.CacheLookup(true)
		return *cached
	default:
		c.metrics.CacheLookup(false)
	}

	intel := c.next.Collect(ctx, host)

	if setErr := c.cache.Set(ctx, host, intel); setErr != nil {
		c.log.Warn("Host intel cache write failed", logger.String("host", host), logger.Error(setErr))
	}
	return intel
}
