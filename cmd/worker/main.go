package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"zettanote/internal/engine/admins"
	"zettanote/internal/pkg/logger"
	"zettanote/internal/platform/audit"
	"zettanote/internal/platform/auth"
	"zettanote/internal/platform/config"
	"zettanote/internal/platform/database"
	"zettanote/internal/platform/repositories"
	"zettanote/internal/workers"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: configs/config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	auditLog := audit.NewLogger(db)
	adminSvc := admins.NewService(
		repositories.NewAdminRepository(db),
		auth.NewPasswordHasher(cfg.Security.BcryptCost),
		auth.NewTokenService(cfg.JWT),
		auditLog,
		cfg.Security,
	)

	scheduler := workers.NewScheduler(cfg.Workers, auditLog, adminSvc, log.Logger)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	log.Info().Msg("workers started")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, waiting for running jobs")
	<-scheduler.Stop().Done()
	log.Info().Msg("workers stopped")
}
