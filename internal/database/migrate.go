package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:blankimports // postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       //nolint:blankimports // file source driver

	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
)

// DefaultMigrationsDir is where migrations live relative to the working directory.
const DefaultMigrationsDir = "migrations"

// Migration directions.
const (
	MigrateUp   = "up"
	MigrateDown = "down"
)

// RunMigrations applies (up) or rolls back one step (down) of the migrations
// in dir against the database at url.
func RunMigrations(url, dir, direction string, log logger.Logger) error {
	if direction != MigrateUp && direction != MigrateDown {
		return fmt.Errorf("invalid direction %q (must be %q or %q)", direction, MigrateUp, MigrateDown)
	}

	if dir == "" {
		dir = DefaultMigrationsDir
	}
	if absPath, absErr := filepath.Abs(dir); absErr == nil {
		dir = absPath
	}

	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case MigrateUp:
		err = m.Up()
	case MigrateDown:
		err = m.Steps(-1)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("No migrations to apply", logger.String("migrations_path", dir))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	log.Info("Migrations applied",
		logger.String("direction", direction),
		logger.String("migrations_path", dir),
	)
	return nil
}
