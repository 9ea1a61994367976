package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/SiGentIsHere/Weblink-Shield/internal/config"
	"github.com/SiGentIsHere/Weblink-Shield/internal/database"
	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
	infragin "github.com/SiGentIsHere/Weblink-Shield/internal/infra/gin"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
	"github.com/SiGentIsHere/Weblink-Shield/internal/metrics"
	"github.com/SiGentIsHere/Weblink-Shield/internal/scan"
	"github.com/SiGentIsHere/Weblink-Shield/internal/service"
)

// App holds the wired components of a running service.
type App struct {
	Config       *config.Config
	Logger       logger.Logger
	Metrics      *metrics.Metrics
	DB           *sqlx.DB
	Redis        *redis.Client
	Analyzer     *service.Analyzer
	Orchestrator *scan.Orchestrator
}

// NewApp connects optional backends and wires the analysis pipeline.
func NewApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.New(nil),
	}

	db, err := SetupDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app.DB = db
	app.Redis = SetupRedis(cfg, log)

	var repo service.Repository = database.NewMemoryRepository()
	scanOpts := []scan.Option{scan.WithLogger(log), scan.WithMetrics(app.Metrics)}
	if db != nil {
		pgRepo := database.NewRepository(db)
		repo = pgRepo
		scanOpts = append(scanOpts, scan.WithJobStore(pgRepo))
	}

	collector := BuildCollector(cfg, app.Redis, app.Metrics, log)
	app.Analyzer, err = BuildAnalyzer(cfg, repo, collector, app.Metrics, log)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Orchestrator, err = scan.New(scan.Config{
		Workers:         cfg.Scan.Workers,
		QueueSize:       cfg.Scan.QueueSize,
		JobTimeout:      cfg.Scan.JobTimeout,
		DrainTimeout:    cfg.Scan.DrainTimeout,
		Retention:       cfg.Scan.Retention,
		JanitorInterval: cfg.Scan.JanitorInterval,
	}, app.Analyzer, scanOpts...)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("create orchestrator: %w", err)
	}

	return app, nil
}

// HealthChecks returns checks for the configured backends. The database is
// critical; the cache only degrades health.
func (a *App) HealthChecks() map[string]infragin.HealthChecker {
	checks := make(map[string]infragin.HealthChecker)
	if a.DB != nil {
		checks["database"] = infragin.PingChecker("database", true, a.DB.PingContext)
	}
	if a.Redis != nil {
		checks["redis"] = infragin.PingChecker("redis", false, func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		})
	}
	return checks
}

// Close releases backend connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("Failed to close redis", logger.Error(err))
		}
	}
	if err := database.Close(a.DB); err != nil {
		a.Logger.Error("Failed to close database", logger.Error(err))
	}
}

// Serve runs the HTTP service until ctx is cancelled or a signal arrives.
func Serve(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	if err = app.Orchestrator.Start(); err != nil {
		return fmt.Errorf("start orchestrator: %w", err)
	}

	server := SetupHTTPServer(app)
	runErr := server.Run(ctx)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Scan.DrainTimeout)
	defer cancel()
	if stopErr := app.Orchestrator.Stop(stopCtx); stopErr != nil {
		log.Warn("Failed to stop orchestrator", logger.Error(stopErr))
	}

	if runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}

// AnalyzeOnce analyzes raw with an in-memory repository.
func AnalyzeOnce(ctx context.Context, cfg *config.Config, log logger.Logger, raw string) (*domain.Result, error) {
	m := metrics.New(nil)
	collector := BuildCollector(cfg, nil, m, log)

	analyzer, err := BuildAnalyzer(cfg, database.NewMemoryRepository(), collector, m, log)
	if err != nil {
		return nil, err
	}

	return analyzer.Analyze(ctx, raw)
}
