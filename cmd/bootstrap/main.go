package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"zettanote/internal/engine/admins"
	"zettanote/internal/pkg/logger"
	"zettanote/internal/platform/audit"
	"zettanote/internal/platform/auth"
	"zettanote/internal/platform/config"
	"zettanote/internal/platform/database"
	"zettanote/internal/platform/repositories"
)

// bootstrap creates the first super admin and prints its temporary
// password. It refuses to run once any admin exists.
func main() {
	configPath := flag.String("config", "", "Path to config file (default: configs/config.yaml)")
	email := flag.String("email", "", "Super admin email")
	name := flag.String("name", "Super Admin", "Super admin display name")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: bootstrap -email admin@example.com [-name \"Jane Doe\"]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logging)

	ctx := context.Background()
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if _, err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	adminSvc := admins.NewService(
		repositories.NewAdminRepository(db),
		auth.NewPasswordHasher(cfg.Security.BcryptCost),
		auth.NewTokenService(cfg.JWT),
		audit.NewLogger(db),
		cfg.Security,
	)

	admin, temp, err := adminSvc.Bootstrap(ctx, *email, *name)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}

	fmt.Printf("Super admin created: %s (%s)\n", admin.Email, admin.ID)
	fmt.Printf("Temporary password: %s\n", temp)
	fmt.Println("You will be asked to change it on first login.")
}
