package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"clarifier/internal/pkg/logger"
	"clarifier/internal/platform/config"
	"clarifier/internal/platform/database"
	"clarifier/internal/platform/repositories"
	"clarifier/internal/workers"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	interval := flag.Duration("interval", time.Hour, "Usage reset sweep interval")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logging, "clarifier-worker")

	if cfg.Database.URL == "" {
		log.Fatal().Msg("database.url is required for the worker")
	}
	db, driver, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	orgs := repositories.NewOrganizationRepository(db, driver, repositories.PlanLimits{
		Free: cfg.Quota.FreeLimit,
		Pro:  cfg.Quota.ProLimit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Dur("interval", *interval).Msg("starting background workers")
	workers.Every(ctx, "usage-reset", *interval, func(ctx context.Context) error {
		return workers.ResetMonthlyUsage(ctx, orgs)
	})
}
