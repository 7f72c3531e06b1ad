package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"
	"zettanote/internal/pkg/logger"
	"zettanote/internal/platform/config"
	"zettanote/internal/platform/database"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: configs/config.yaml)")
	dbPath := flag.String("db", "", "Database path (overrides database.path)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logging)

	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	applied, err := database.Migrate(context.Background(), db)
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	for _, name := range applied {
		fmt.Printf("applied %s\n", name)
	}
	fmt.Printf("Migration completed successfully (%d applied)\n", len(applied))
}
