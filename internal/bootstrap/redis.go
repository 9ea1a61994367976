package bootstrap

import (
	"github.com/redis/go-redis/v9"

	"github.com/SiGentIsHere/Weblink-Shield/internal/cache"
	"github.com/SiGentIsHere/Weblink-Shield/internal/config"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
)

// SetupRedis creates the optional host intel cache client.
// Returns nil if Redis is disabled or unavailable.
func SetupRedis(cfg *config.Config, log logger.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	client, err := cache.NewClient(cache.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis not available, host intel cache disabled",
			logger.Error(err),
		)
		return nil
	}

	log.Info("Host intel cache initialized",
		logger.String("redis_address", cfg.Redis.Address),
		logger.Duration("ttl", cfg.Redis.IntelTTL),
	)
	return client
}
