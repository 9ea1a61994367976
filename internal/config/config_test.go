package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SiGentIsHere/Weblink-Shield/internal/config"
	infraconfig "github.com/SiGentIsHere/Weblink-Shield/internal/infra/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Port != 8090 {
		t.Errorf("service.port = %d, want 8090", cfg.Service.Port)
	}
	if cfg.Scan.Workers != 4 || cfg.Scan.QueueSize != 256 {
		t.Errorf("scan = %+v", cfg.Scan)
	}
	if cfg.Scan.JobTimeout != 30*time.Second || cfg.Scan.Retention != time.Hour {
		t.Errorf("scan timeouts = %+v", cfg.Scan)
	}
	if cfg.Intel.DNSTimeout != 3*time.Second || cfg.Intel.ConnectTimeout != 3*time.Second {
		t.Errorf("intel = %+v", cfg.Intel)
	}
	if cfg.Intel.MaxAge != 0 {
		t.Errorf("intel.max_age = %v, want 0", cfg.Intel.MaxAge)
	}
	if cfg.Database.Enabled || cfg.Redis.Enabled || cfg.Intel.Whois.Enabled {
		t.Error("optional collaborators should default to disabled")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := `
service:
  port: 9000
scan:
  workers: 8
  retention: 10m
database:
  enabled: true
  host: db.internal
rules:
  risky_tlds: [tk, ml]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LINKSHIELD_PORT", "9100")
	t.Setenv("SCAN_QUEUE_SIZE", "16")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Port != 9100 {
		t.Errorf("service.port = %d, want env override 9100", cfg.Service.Port)
	}
	if cfg.Scan.Workers != 8 || cfg.Scan.QueueSize != 16 || cfg.Scan.Retention != 10*time.Minute {
		t.Errorf("scan = %+v", cfg.Scan)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 5432 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if len(cfg.Rules.RiskyTLDs) != 2 {
		t.Errorf("rules.risky_tlds = %v", cfg.Rules.RiskyTLDs)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		mutate    func(c *config.Config)
		wantField string
	}{
		{"defaults", func(*config.Config) {}, ""},
		{"bad port", func(c *config.Config) { c.Service.Port = 70000 }, "service.port"},
		{"db host", func(c *config.Config) { c.Database.Enabled = true; c.Database.Host = "" }, "database.host"},
		{"db disabled ignores host", func(c *config.Config) { c.Database.Host = "" }, ""},
		{"redis address", func(c *config.Config) { c.Redis.Enabled = true; c.Redis.Address = "" }, "redis.address"},
		{"workers", func(c *config.Config) { c.Scan.Workers = -1 }, "scan.workers"},
		{"queue", func(c *config.Config) { c.Scan.QueueSize = -1 }, "scan.queue_size"},
		{"max age", func(c *config.Config) { c.Intel.MaxAge = -time.Second }, "intel.max_age"},
		{"rate limit", func(c *config.Config) { c.RateLimit.Enabled = true; c.RateLimit.Burst = -1 }, "rate_limit.burst"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tc.mutate(cfg)
			err := cfg.Validate()

			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var vErr *infraconfig.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if vErr.Field != tc.wantField {
				t.Errorf("field = %q, want %q", vErr.Field, tc.wantField)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	d := config.DatabaseConfig{Host: "h", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable"}

	if got, want := d.DSN(), "host=h port=5433 user=u password=p dbname=d sslmode=disable"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
	if got, want := d.URL(), "postgres://u:p@h:5433/d?sslmode=disable"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}
