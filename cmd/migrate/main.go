package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"clarifier/internal/pkg/logger"
	"clarifier/internal/platform/config"
	"clarifier/internal/platform/database"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logging, "clarifier-migrate")

	if cfg.Database.URL == "" {
		log.Fatal().Msg("database.url is required")
	}

	db, driver, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, db, driver); err != nil {
		log.Fatal().Err(err).Str("driver", driver).Msg("migration failed")
	}

	fmt.Println("Migration completed successfully")
}
