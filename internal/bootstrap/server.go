package bootstrap

import (
	"github.com/gin-gonic/gin"

	"github.com/SiGentIsHere/Weblink-Shield/internal/api"
	infragin "github.com/SiGentIsHere/Weblink-Shield/internal/infra/gin"
)

// SetupHTTPServer creates and configures the HTTP server.
func SetupHTTPServer(app *App) *infragin.Server {
	cfg := app.Config

	routes := api.RouteConfig{
		Scans:     api.NewScanHandler(app.Orchestrator, app.Logger, 0),
		Analysis:  api.NewAnalyzeHandler(app.Analyzer, app.Logger),
		JWTSecret: cfg.Auth.JWTSecret,
		Metrics:   app.Metrics.Handler(),
	}
	if cfg.RateLimit.Enabled {
		routes.RateLimiter = api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(app.Logger).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithRoutes(func(router *gin.Engine) {
			api.SetupRoutes(router, routes)
		})

	for name, check := range app.HealthChecks() {
		builder = builder.WithHealthCheck(name, check)
	}

	return builder.Build()
}
