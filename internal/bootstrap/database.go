package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/SiGentIsHere/Weblink-Shield/internal/config"
	"github.com/SiGentIsHere/Weblink-Shield/internal/database"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/retry"
)

// SetupDatabase connects to PostgreSQL. Returns nil when the database is disabled.
func SetupDatabase(ctx context.Context, cfg *config.Config, log logger.Logger) (*sqlx.DB, error) {
	if !cfg.Database.Enabled {
		log.Info("Database disabled, keeping analysis state in memory")
		return nil, nil
	}

	db, err := database.Connect(ctx, database.Config{
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnectionMaxLifetime,
		Retry:           retry.DefaultConfig(),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}

	log.Info("Connected to database",
		logger.String("host", cfg.Database.Host),
		logger.String("database", cfg.Database.Database),
	)
	return db, nil
}
