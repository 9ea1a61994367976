// Package config defines the linkshield service configuration.
package config

import (
	"fmt"
	"time"

	infraconfig "github.com/SiGentIsHere/Weblink-Shield/internal/infra/config"
)

// Default service configuration values.
const (
	defaultServiceName    = "linkshield"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 8090
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
)

// Default database configuration values.
const (
	defaultDBHost          = "localhost"
	defaultDBPort          = 5432
	defaultDBUser          = "postgres"
	defaultDBName          = "linkshield"
	defaultDBSSLMode       = "disable"
	defaultDBMaxConns      = 25
	defaultDBMaxIdleConns  = 5
	defaultDBConnLifetimeH = 1
)

// Default redis configuration values.
const (
	defaultRedisAddress  = "localhost:6379"
	defaultRedisIntelTTL = 6 * time.Hour
)

// Default scan orchestrator values.
const (
	defaultScanWorkers         = 4
	defaultScanQueueSize       = 256
	defaultScanJobTimeout      = 30 * time.Second
	defaultScanRetention       = time.Hour
	defaultScanJanitorInterval = time.Minute
	defaultScanDrainTimeout    = 30 * time.Second
)

// Default host intel probe values.
const (
	defaultDNSTimeout     = 3 * time.Second
	defaultConnectTimeout = 3 * time.Second
	defaultReadTimeout    = 3 * time.Second
	defaultWhoisTimeout   = 5 * time.Second
)

// Default rate limit values.
const (
	defaultRateLimitRPS   = 5.0
	defaultRateLimitBurst = 10
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Scan      ScanConfig      `yaml:"scan"`
	Intel     IntelConfig     `yaml:"intel"`
	Rules     RulesConfig     `yaml:"rules"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServiceConfig holds service identity and runtime settings.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"LINKSHIELD_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"       yaml:"debug"`
}

// DatabaseConfig holds PostgreSQL connection settings. When Enabled is false
// the service keeps all state in memory.
type DatabaseConfig struct {
	Enabled               bool          `env:"POSTGRES_LINKSHIELD_ENABLED"  yaml:"enabled"`
	Host                  string        `env:"POSTGRES_LINKSHIELD_HOST"     yaml:"host"`
	Port                  int           `env:"POSTGRES_LINKSHIELD_PORT"     yaml:"port"`
	User                  string        `env:"POSTGRES_LINKSHIELD_USER"     yaml:"user"`
	Password              string        `env:"POSTGRES_LINKSHIELD_PASSWORD" yaml:"password"`
	Database              string        `env:"POSTGRES_LINKSHIELD_DB"       yaml:"database"`
	SSLMode               string        `yaml:"sslmode"`
	MaxConnections        int           `yaml:"max_connections"`
	MaxIdleConns          int           `yaml:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// URL returns the postgres:// form used by golang-migrate.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

// RedisConfig holds the optional host intel cache settings.
type RedisConfig struct {
	Enabled  bool          `env:"REDIS_ENABLED"   yaml:"enabled"`
	Address  string        `env:"REDIS_ADDRESS"   yaml:"address"`
	Password string        `env:"REDIS_PASSWORD"  yaml:"password"`
	DB       int           `env:"REDIS_DB"        yaml:"db"`
	IntelTTL time.Duration `env:"REDIS_INTEL_TTL" yaml:"intel_ttl"`
}

// AuthConfig holds authentication settings. An empty secret disables auth.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// ScanConfig sizes the job orchestrator.
type ScanConfig struct {
	Workers         int           `env:"SCAN_WORKERS"     yaml:"workers"`
	QueueSize       int           `env:"SCAN_QUEUE_SIZE"  yaml:"queue_size"`
	JobTimeout      time.Duration `env:"SCAN_JOB_TIMEOUT" yaml:"job_timeout"`
	Retention       time.Duration `env:"SCAN_RETENTION"   yaml:"retention"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
	DrainTimeout    time.Duration `yaml:"drain_timeout"`
}

// IntelConfig holds host intel probe settings.
type IntelConfig struct {
	DNSTimeout     time.Duration `env:"INTEL_DNS_TIMEOUT"     yaml:"dns_timeout"`
	ConnectTimeout time.Duration `env:"INTEL_CONNECT_TIMEOUT" yaml:"connect_timeout"`
	ReadTimeout    time.Duration `env:"INTEL_READ_TIMEOUT"    yaml:"read_timeout"`
	// MaxAge re-collects stored intel older than this. Zero keeps stored
	// intel forever.
	MaxAge time.Duration `env:"INTEL_MAX_AGE" yaml:"max_age"`
	Whois  WhoisConfig   `yaml:"whois"`
}

// WhoisConfig enables the WHOIS domain age lookup.
type WhoisConfig struct {
	Enabled bool          `env:"INTEL_WHOIS_ENABLED" yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// RulesConfig points at the scoring policy and allows inline overrides.
type RulesConfig struct {
	PolicyFile          string   `env:"RULES_POLICY_FILE" yaml:"policy_file"`
	RiskyTLDs           []string `env:"RULES_RISKY_TLDS"  yaml:"risky_tlds"`
	MaliciousThreshold  int      `yaml:"malicious_threshold"`
	SuspiciousThreshold int      `yaml:"suspicious_threshold"`
}

// RateLimitConfig bounds per-client request rate on the API.
type RateLimitConfig struct {
	Enabled bool    `env:"RATE_LIMIT_ENABLED" yaml:"enabled"`
	RPS     float64 `env:"RATE_LIMIT_RPS"     yaml:"rps"`
	Burst   int     `env:"RATE_LIMIT_BURST"   yaml:"burst"`
}

// Load loads configuration from a YAML file, applies defaults, then env overrides.
func Load(path string) (*Config, error) {
	cfg, loadErr := infraconfig.LoadWithDefaults(path, setDefaults)
	if loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return cfg, nil
}

// Default returns a configuration with every default applied and no file or
// environment input.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return &infraconfig.ValidationError{Field: "database.host", Message: "is required"}
		}
		if c.Database.Database == "" {
			return &infraconfig.ValidationError{Field: "database.database", Message: "is required"}
		}
	}

	if c.Redis.Enabled && c.Redis.Address == "" {
		return &infraconfig.ValidationError{Field: "redis.address", Message: "is required"}
	}

	if err := infraconfig.ValidatePositive("scan.workers", c.Scan.Workers); err != nil {
		return err
	}
	if err := infraconfig.ValidatePositive("scan.queue_size", c.Scan.QueueSize); err != nil {
		return err
	}
	if err := infraconfig.ValidatePositive("scan.job_timeout", c.Scan.JobTimeout); err != nil {
		return err
	}

	if c.Intel.MaxAge < 0 {
		return &infraconfig.ValidationError{Field: "intel.max_age", Message: "must not be negative"}
	}

	if c.RateLimit.Enabled {
		if err := infraconfig.ValidatePositive("rate_limit.rps", c.RateLimit.RPS); err != nil {
			return err
		}
		if err := infraconfig.ValidatePositive("rate_limit.burst", c.RateLimit.Burst); err != nil {
			return err
		}
	}

	return nil
}

// setDefaults applies default values to all configuration sections.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setRedisDefaults(&cfg.Redis)
	setLoggingDefaults(&cfg.Logging)
	setScanDefaults(&cfg.Scan)
	setIntelDefaults(&cfg.Intel)
	setRateLimitDefaults(&cfg.RateLimit)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}

	if s.Version == "" {
		s.Version = defaultServiceVersion
	}

	if s.Port == 0 {
		s.Port = defaultServicePort
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}

	if d.Port == 0 {
		d.Port = defaultDBPort
	}

	if d.User == "" {
		d.User = defaultDBUser
	}

	if d.Database == "" {
		d.Database = defaultDBName
	}

	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}

	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}

	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}

	if d.ConnectionMaxLifetime == 0 {
		d.ConnectionMaxLifetime = defaultDBConnLifetimeH * time.Hour
	}
}

func setRedisDefaults(r *RedisConfig) {
	if r.Address == "" {
		r.Address = defaultRedisAddress
	}

	if r.IntelTTL == 0 {
		r.IntelTTL = defaultRedisIntelTTL
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}

	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}

func setScanDefaults(s *ScanConfig) {
	if s.Workers == 0 {
		s.Workers = defaultScanWorkers
	}

	if s.QueueSize == 0 {
		s.QueueSize = defaultScanQueueSize
	}

	if s.JobTimeout == 0 {
		s.JobTimeout = defaultScanJobTimeout
	}

	if s.Retention == 0 {
		s.Retention = defaultScanRetention
	}

	if s.JanitorInterval == 0 {
		s.JanitorInterval = defaultScanJanitorInterval
	}

	if s.DrainTimeout == 0 {
		s.DrainTimeout = defaultScanDrainTimeout
	}
}

func setIntelDefaults(i *IntelConfig) {
	if i.DNSTimeout == 0 {
		i.DNSTimeout = defaultDNSTimeout
	}

	if i.ConnectTimeout == 0 {
		i.ConnectTimeout = defaultConnectTimeout
	}

	if i.ReadTimeout == 0 {
		i.ReadTimeout = defaultReadTimeout
	}

	if i.Whois.Timeout == 0 {
		i.Whois.Timeout = defaultWhoisTimeout
	}
}

func setRateLimitDefaults(r *RateLimitConfig) {
	if r.RPS == 0 {
		r.RPS = defaultRateLimitRPS
	}

	if r.Burst == 0 {
		r.Burst = defaultRateLimitBurst
	}
}
