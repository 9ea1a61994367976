package gin_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	infragin "github.com/SiGentIsHere/Weblink-Shield/internal/infra/gin"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
)

func buildServer(checks map[string]infragin.HealthChecker) *infragin.Server {
	b := infragin.NewServerBuilder("linkshield-test", 18080).
		WithLogger(logger.NewNop()).
		WithVersion("test").
		WithRoutes(func(r *gin.Engine) {
			r.GET("/boom", func(*gin.Context) { panic("kaboom") })
			r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
		})
	for name, check := range checks {
		b = b.WithHealthCheck(name, check)
	}
	return b.Build()
}

func TestHealth_Healthy(t *testing.T) {
	srv := buildServer(map[string]infragin.HealthChecker{
		"database": infragin.PingChecker("database", true, func(context.Context) error { return nil }),
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp infragin.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != infragin.HealthStatusHealthy || resp.Service != "linkshield-test" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHealth_OptionalDependencyDegrades(t *testing.T) {
	srv := buildServer(map[string]infragin.HealthChecker{
		"redis": infragin.PingChecker("redis", false, func(context.Context) error { return errors.New("down") }),
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp infragin.HealthResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != infragin.HealthStatusDegraded {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
}

func TestHealth_CriticalDependencyUnhealthy(t *testing.T) {
	srv := buildServer(map[string]infragin.HealthChecker{
		"database": infragin.PingChecker("database", true, func(context.Context) error { return errors.New("down") }),
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	srv := buildServer(nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRequestIDMiddleware_EchoesHeader(t *testing.T) {
	srv := buildServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/ok", http.NoBody)
	req.Header.Set(infragin.RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get(infragin.RequestIDHeader); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want req-123", got)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	srv := buildServer(nil)

	req := httptest.NewRequest(http.MethodOptions, "/ok", http.NoBody)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("allow-origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
