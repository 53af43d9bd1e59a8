package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

// Migrate applies every pending migration from sourceURL
func Migrate(dsn, sourceURL string) error {
	return withMigrator(dsn, sourceURL, "up", (*migrate.Migrate).Up)
}

// Rollback reverts every applied migration
func Rollback(dsn, sourceURL string) error {
	return withMigrator(dsn, sourceURL, "down", (*migrate.Migrate).Down)
}

func withMigrator(dsn, sourceURL, direction string, run func(*migrate.Migrate) error) error {
	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return fmt.Errorf("failed to open migrations at %s: %w", sourceURL, err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err := errors.Join(srcErr, dbErr); err != nil {
			log.Warn().Err(err).Msg("failed to close migrator")
		}
	}()

	changed := true
	if err := run(m); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to migrate %s: %w", direction, err)
		}
		changed = false
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		version = 0
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case dirty:
		return fmt.Errorf("schema version %d is dirty", version)
	}

	log.Info().
		Str("direction", direction).
		Uint("version", version).
		Bool("changed", changed).
		Msg("user schema migrated")
	return nil
}
