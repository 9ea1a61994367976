package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouteConfig wires handlers and optional middleware into the router.
type RouteConfig struct {
	Scans    *ScanHandler
	Analysis *AnalyzeHandler

	// JWTSecret enables bearer auth on /api/v1 when set.
	JWTSecret string

	// RateLimiter throttles submissions when set.
	RateLimiter *RateLimiter

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// SetupRoutes configures all API routes.
// Health routes are registered by the infrastructure gin builder.
// The synchronous analyze and verdict endpoints are served under both /api
// and /api/v1.
func SetupRoutes(router *gin.Engine, cfg RouteConfig) {
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	v1 := apiGroup(router, "/api/v1", cfg)
	if cfg.Scans != nil {
		v1.POST("/scan", limited(cfg, cfg.Scans.Submit)...)
		v1.GET("/scan/:jobId", cfg.Scans.Get)
		v1.GET("/scan/:jobId/stream", cfg.Scans.Stream)
	}

	if cfg.Analysis != nil {
		setupAnalysisRoutes(v1, cfg)
		setupAnalysisRoutes(apiGroup(router, "/api", cfg), cfg)
	}
}

func apiGroup(router *gin.Engine, prefix string, cfg RouteConfig) *gin.RouterGroup {
	group := router.Group(prefix)
	if cfg.JWTSecret != "" {
		group.Use(JWTMiddleware(cfg.JWTSecret))
	}
	return group
}

func setupAnalysisRoutes(group *gin.RouterGroup, cfg RouteConfig) {
	group.POST("/analyze", limited(cfg, cfg.Analysis.Analyze)...)
	group.GET("/verdict", cfg.Analysis.Verdict)
}

// limited prepends the rate limiter to h when one is configured.
func limited(cfg RouteConfig, h gin.HandlerFunc) []gin.HandlerFunc {
	if cfg.RateLimiter == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{cfg.RateLimiter.Middleware(), h}
}
