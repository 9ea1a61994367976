package bootstrap

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/SiGentIsHere/Weblink-Shield/internal/cache"
	"github.com/SiGentIsHere/Weblink-Shield/internal/config"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
	"github.com/SiGentIsHere/Weblink-Shield/internal/intel"
	"github.com/SiGentIsHere/Weblink-Shield/internal/metrics"
	"github.com/SiGentIsHere/Weblink-Shield/internal/rules"
	"github.com/SiGentIsHere/Weblink-Shield/internal/service"
)

// BuildPolicy resolves the scoring policy: defaults, then the policy file,
// then inline overrides from the rules section.
func BuildPolicy(cfg *config.Config) (rules.Policy, error) {
	policy := rules.DefaultPolicy()
	if cfg.Rules.PolicyFile != "" {
		loaded, err := rules.LoadPolicy(cfg.Rules.PolicyFile)
		if err != nil {
			return rules.Policy{}, fmt.Errorf("load rules policy: %w", err)
		}
		policy = loaded
	}

	policy = policy.Merge(rules.Policy{
		RiskyTLDs: cfg.Rules.RiskyTLDs,
		Thresholds: rules.Thresholds{
			Malicious:  cfg.Rules.MaliciousThreshold,
			Suspicious: cfg.Rules.SuspiciousThreshold,
		},
	})
	if err := policy.Validate(); err != nil {
		return rules.Policy{}, err
	}
	return policy, nil
}

// BuildCollector creates the host intel collector, wrapped in the Redis cache
// when a client is given.
func BuildCollector(cfg *config.Config, client *redis.Client, m *metrics.Metrics, log logger.Logger) intel.Collector {
	opts := []intel.Option{
		intel.WithLogger(log),
		intel.WithMetrics(m),
	}
	if cfg.Intel.Whois.Enabled {
		opts = append(opts, intel.WithDomainAger(intel.NewWhoisAger(cfg.Intel.Whois.Timeout)))
	}

	var collector intel.Collector = intel.NewCollector(intel.Config{
		DNSTimeout:     cfg.Intel.DNSTimeout,
		ConnectTimeout: cfg.Intel.ConnectTimeout,
		ReadTimeout:    cfg.Intel.ReadTimeout,
	}, opts...)

	if client != nil {
		collector = intel.NewCachedCollector(collector, cache.NewHostIntelCache(client, cfg.Redis.IntelTTL), log, m)
	}
	return collector
}

// BuildAnalyzer wires the rule engine and collector over repo.
func BuildAnalyzer(
	cfg *config.Config,
	repo service.Repository,
	collector intel.Collector,
	m *metrics.Metrics,
	log logger.Logger,
) (*service.Analyzer, error) {
	policy, err := BuildPolicy(cfg)
	if err != nil {
		return nil, err
	}

	engine, err := rules.NewEngine(policy)
	if err != nil {
		return nil, fmt.Errorf("create rule engine: %w", err)
	}

	return service.NewAnalyzer(repo, collector, engine,
		service.WithIntelMaxAge(cfg.Intel.MaxAge),
		service.WithLogger(log),
		service.WithMetrics(m),
	), nil
}
