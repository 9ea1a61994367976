package bootstrap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiGentIsHere/Weblink-Shield/internal/bootstrap"
	"github.com/SiGentIsHere/Weblink-Shield/internal/config"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
)

func TestBuildPolicy_Defaults(t *testing.T) {
	policy, err := bootstrap.BuildPolicy(config.Default())
	require.NoError(t, err)

	assert.Equal(t, 40, policy.Thresholds.Malicious)
	assert.Equal(t, 20, policy.Thresholds.Suspicious)
	assert.Contains(t, policy.RiskyTLDs, "tk")
}

func TestBuildPolicy_FileThenInlineOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
risky_tlds: [zip, mov]
thresholds:
  malicious: 60
  suspicious: 30
`), 0o600))

	cfg := config.Default()
	cfg.Rules.PolicyFile = path
	cfg.Rules.SuspiciousThreshold = 25

	policy, err := bootstrap.BuildPolicy(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"zip", "mov"}, policy.RiskyTLDs)
	assert.Equal(t, 60, policy.Thresholds.Malicious)
	assert.Equal(t, 25, policy.Thresholds.Suspicious)
}

func TestBuildPolicy_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.Rules.MaliciousThreshold = 10

	_, err := bootstrap.BuildPolicy(cfg)
	assert.Error(t, err, "malicious threshold below suspicious")

	cfg = config.Default()
	cfg.Rules.PolicyFile = filepath.Join(t.TempDir(), "missing.yml")
	_, err = bootstrap.BuildPolicy(cfg)
	assert.Error(t, err)
}

func TestNewApp_InMemory(t *testing.T) {
	cfg := config.Default()

	app, err := bootstrap.NewApp(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.DB)
	assert.Nil(t, app.Redis)
	assert.Empty(t, app.HealthChecks())
	require.NotNil(t, app.Orchestrator)

	require.NoError(t, app.Orchestrator.Start())
	defer func() { _ = app.Orchestrator.Stop(context.Background()) }()

	router := bootstrap.SetupHTTPServer(app).Router()

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"health", "/health", http.StatusOK},
		{"metrics", "/metrics", http.StatusOK},
		{"unknown job", "/api/v1/scan/does-not-exist", http.StatusNotFound},
		{"never analyzed", "/api/v1/verdict?url=example.com", http.StatusNotFound},
		{"invalid verdict url", "/api/v1/verdict?url=", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestNewApp_InvalidPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Rules.PolicyFile = filepath.Join(t.TempDir(), "missing.yml")

	_, err := bootstrap.NewApp(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}
