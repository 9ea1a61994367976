// Package database persists analysis results and scan jobs.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/retry"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections.
	DefaultMaxOpenConns = 25

	// DefaultMaxIdleConns is the default maximum number of idle connections.
	DefaultMaxIdleConns = 5

	// DefaultConnMaxLifetime is the default maximum lifetime of a connection.
	DefaultConnMaxLifetime = time.Hour

	// DefaultPingTimeout bounds each connection attempt.
	DefaultPingTimeout = 5 * time.Second
)

// Config holds database connection settings.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retry           retry.Config
}

// Connect opens a pooled PostgreSQL connection, retrying transient failures
// while the database comes up.
func Connect(ctx context.Context, cfg Config, log logger.Logger) (*sqlx.DB, error) {
	if log == nil {
		log = logger.NewNop()
	}

	var db *sqlx.DB
	attempt := 0
	err := retry.Do(ctx, cfg.Retry, func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
		defer cancel()

		conn, connErr := sqlx.ConnectContext(pingCtx, "postgres", cfg.DSN)
		if connErr != nil {
			log.Warn("Database connection attempt failed",
				logger.Int("attempt", attempt),
				logger.Error(connErr),
			)
			return connErr
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(valueOr(cfg.MaxOpenConns, DefaultMaxOpenConns))
	db.SetMaxIdleConns(valueOr(cfg.MaxIdleConns, DefaultMaxIdleConns))
	db.SetConnMaxLifetime(valueOr(cfg.ConnMaxLifetime, DefaultConnMaxLifetime))

	return db, nil
}

// Close closes the database connection.
func Close(db *sqlx.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}

func valueOr[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}
