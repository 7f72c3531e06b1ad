package api

import (
	"database/sql"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"zettanote/internal/api/handlers"
	"zettanote/internal/api/middleware"
	"zettanote/internal/engine/accounts"
	"zettanote/internal/engine/admins"
	"zettanote/internal/engine/analytics"
	"zettanote/internal/engine/pages"
	"zettanote/internal/platform/audit"
	"zettanote/internal/platform/auth"
	"zettanote/internal/platform/config"
	"zettanote/internal/platform/repositories"
)

// NewDependencies wires services and handlers over db. rdb may be nil
// unless the redis rate limit backend is configured.
func NewDependencies(cfg *config.Config, db *sql.DB, rdb *redis.Client, logger zerolog.Logger) *Dependencies {
	userRepo := repositories.NewUserRepository(db)
	adminRepo := repositories.NewAdminRepository(db)
	auditLog := audit.NewLogger(db)

	tokenSvc := auth.NewTokenService(cfg.JWT)
	hasher := auth.NewPasswordHasher(cfg.Security.BcryptCost)

	accountSvc := accounts.NewService(userRepo, hasher, tokenSvc)
	adminSvc := admins.NewService(adminRepo, hasher, tokenSvc, auditLog, cfg.Security)
	pageSvc := pages.NewService(pages.NewRepository(db), userRepo, cfg.Pages)
	analyticsSvc := analytics.NewService(analytics.NewRepository(db))

	var limiter middleware.Limiter
	if cfg.RateLimit.Backend == "redis" && rdb != nil {
		limiter = middleware.NewRedisLimiter(rdb)
	} else {
		limiter = middleware.NewMemoryLimiter()
	}

	return &Dependencies{
		AuthHandler:      handlers.NewAuthHandler(accountSvc, tokenSvc, cfg.JWT),
		PageHandler:      handlers.NewPageHandler(pageSvc),
		AdminAuthHandler: handlers.NewAdminAuthHandler(adminSvc, tokenSvc, cfg.JWT),
		AdminHandler:     handlers.NewAdminHandler(adminSvc),
		UserHandler:      handlers.NewUserHandler(accountSvc, auditLog),
		AdminPageHandler: handlers.NewAdminPageHandler(pageSvc, auditLog),
		AnalyticsHandler: handlers.NewAnalyticsHandler(analyticsSvc),
		MetricsHandler:   handlers.NewMetricsHandler(analyticsSvc),
		HealthHandler:    handlers.NewHealthHandler(db, rdb),
		SystemHandler:    handlers.NewSystemHandler(cfg),
		AuthMiddleware:   middleware.NewAuthMiddleware(tokenSvc, accountSvc, cfg.JWT.UserCookie),
		AdminMiddleware:  middleware.NewAdminMiddleware(tokenSvc, adminSvc, cfg.JWT.AdminCookie),
		AdminService:     adminSvc,
		Limiter:          limiter,
		Logger:           logger,
		Config:           cfg,
	}
}
