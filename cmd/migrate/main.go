// Command migrate applies or rolls back the stock check schema.
//
//	migrate up
//	migrate down -steps 1
//	migrate version
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/medflow/stockcheck-backend/pkg/config"
	"github.com/medflow/stockcheck-backend/pkg/database"
	"github.com/medflow/stockcheck-backend/pkg/logger"
)

func main() {
	steps := flag.Int("steps", 1, "number of migrations to roll back; 0 rolls back everything")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] up|down|version\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("stockcheck-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Database.Validate(cfg.Server.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("migrate", cfg.Server.Environment)
	url := cfg.Database.MigrationURL()

	switch flag.Arg(0) {
	case "up":
		err = database.Migrate(url, log)
	case "down":
		err = database.MigrateDown(url, *steps, log)
	case "version":
		version, dirty, verr := database.MigrationVersion(url)
		if verr == nil {
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("current schema version")
		}
		err = verr
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", flag.Arg(0)).Msg("migration failed")
	}
}
