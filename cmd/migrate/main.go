package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/sign-gateway/internal/config"
	"github.com/Rrens/sign-gateway/internal/repository/postgres"
)

func main() {
	source := flag.String("source", "", "migrations source URL (defaults to store.postgres.migrations_url)")
	down := flag.Bool("down", false, "roll back every applied migration")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	sourceURL := cfg.Store.Postgres.MigrationsURL
	if *source != "" {
		sourceURL = *source
	}

	run := postgres.Migrate
	if *down {
		run = postgres.Rollback
	}

	log.Info().
		Str("host", cfg.Store.Postgres.Host).
		Int("port", cfg.Store.Postgres.Port).
		Str("source", sourceURL).
		Bool("down", *down).
		Msg("Applying migrations")

	if err := run(cfg.Store.Postgres.DSN(), sourceURL); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
