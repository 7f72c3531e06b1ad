package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	apiContext "zettanote/internal/api/context"
	"zettanote/internal/api/handlers"
	"zettanote/internal/api/middleware"
	"zettanote/internal/engine/admins"
	"zettanote/internal/pkg/errors"
	"zettanote/internal/platform/config"
)

type Dependencies struct {
	AuthHandler      *handlers.AuthHandler
	PageHandler      *handlers.PageHandler
	AdminAuthHandler *handlers.AdminAuthHandler
	AdminHandler     *handlers.AdminHandler
	UserHandler      *handlers.UserHandler
	AdminPageHandler *handlers.AdminPageHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	MetricsHandler   *handlers.MetricsHandler
	HealthHandler    *handlers.HealthHandler
	SystemHandler    *handlers.SystemHandler
	AuthMiddleware   *middleware.AuthMiddleware
	AdminMiddleware  *middleware.AdminMiddleware
	AdminService     *admins.Service
	Limiter          middleware.Limiter
	Logger           zerolog.Logger
	Config           *config.Config
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Route not found", nil)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	limits := deps.Config.RateLimit
	authMid := deps.AuthMiddleware.Handle
	adminMid := deps.AdminMiddleware.Handle
	perm := deps.AdminMiddleware.RequirePermission

	router.GET("/healthz", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	// User authentication
	router.POST("/api/auth/signup",
		chain(deps.AuthHandler.Signup, middleware.RateLimit(deps.Limiter, "signup", limits.SignupPerMinute)))
	router.POST("/api/auth/login",
		chain(deps.AuthHandler.Login, middleware.RateLimit(deps.Limiter, "login", limits.LoginPerMinute)))
	router.POST("/api/auth/logout", wrap(deps.AuthHandler.Logout))
	router.GET("/api/auth/me", chain(deps.AuthHandler.Me, authMid))
	router.PUT("/api/auth/password", chain(deps.AuthHandler.ChangePassword, authMid))
	router.DELETE("/api/auth/account", chain(deps.AuthHandler.DeleteAccount, authMid))

	// Pages
	router.GET("/api/pages", chain(deps.PageHandler.List, authMid))
	router.POST("/api/pages", chain(deps.PageHandler.Create, authMid))
	router.GET("/api/pages/:id", chain(deps.PageHandler.Get, authMid))
	router.PATCH("/api/pages/:id", chain(deps.PageHandler.Rename, authMid))
	router.PUT("/api/pages/:id/content", chain(deps.PageHandler.Save, authMid))
	router.DELETE("/api/pages/:id", chain(deps.PageHandler.Delete, authMid))
	router.POST("/api/pages/:id/share", chain(deps.PageHandler.Share, authMid))
	router.DELETE("/api/pages/:id/share", chain(deps.PageHandler.Unshare, authMid))
	router.POST("/api/pages/:id/public", chain(deps.PageHandler.Publicize, authMid))
	router.DELETE("/api/pages/:id/public", chain(deps.PageHandler.Unpublish, authMid))
	router.GET("/api/pages/:id/public/qr", chain(deps.PageHandler.QRCode, authMid))
	router.GET("/api/public/:token", wrap(deps.PageHandler.Public))

	// Admin authentication
	router.POST("/api/admin/auth/login",
		chain(deps.AdminAuthHandler.Login, middleware.RateLimit(deps.Limiter, "admin_login", limits.AdminLoginPerMinute)))
	router.POST("/api/admin/auth/change-first-password",
		chain(deps.AdminAuthHandler.ChangeFirstPassword, middleware.RateLimit(deps.Limiter, "admin_login", limits.AdminLoginPerMinute)))
	router.POST("/api/admin/auth/logout", chain(deps.AdminAuthHandler.Logout, adminMid))
	router.GET("/api/admin/auth/me", chain(deps.AdminAuthHandler.Me, adminMid))
	router.PUT("/api/admin/auth/password", chain(deps.AdminAuthHandler.ChangePassword, adminMid))

	// User management
	router.GET("/api/admin/users",
		chain(deps.UserHandler.List, adminMid, perm(admins.PermReadUsers)))
	router.GET("/api/admin/users/:id",
		chain(deps.UserHandler.Get, adminMid, perm(admins.PermReadUsers)))
	router.PATCH("/api/admin/users/:id",
		chain(deps.UserHandler.Update, adminMid, perm(admins.PermWriteUsers)))
	router.POST("/api/admin/users/:id/ban",
		chain(deps.UserHandler.Ban, adminMid, perm(admins.PermBanUsers)))
	router.POST("/api/admin/users/:id/unban",
		chain(deps.UserHandler.Unban, adminMid, perm(admins.PermBanUsers)))
	router.DELETE("/api/admin/users/:id",
		chain(deps.UserHandler.Delete, adminMid, perm(admins.PermDeleteUsers)))

	// Page moderation
	router.GET("/api/admin/pages",
		chain(deps.AdminPageHandler.List, adminMid, perm(admins.PermReadPages)))
	router.GET("/api/admin/pages/:id",
		chain(deps.AdminPageHandler.Get, adminMid, perm(admins.PermReadPages)))
	router.DELETE("/api/admin/pages/:id",
		chain(deps.AdminPageHandler.Delete, adminMid, perm(admins.PermDeletePages)))

	// Analytics
	router.GET("/api/admin/analytics",
		chain(deps.AnalyticsHandler.GetOverview, adminMid, perm(admins.PermReadAnalytics)))

	// System
	router.GET("/api/admin/system",
		chain(deps.SystemHandler.Settings, adminMid, perm(admins.PermSystemConfig)))

	// Admin management
	router.GET("/api/admin/admins",
		chain(deps.AdminHandler.List, adminMid, perm(admins.PermManageAdmins)))
	router.POST("/api/admin/admins",
		chain(deps.AdminHandler.Create, adminMid, perm(admins.PermManageAdmins)))
	router.GET("/api/admin/admins/:id",
		chain(deps.AdminHandler.Get, adminMid, perm(admins.PermManageAdmins)))
	router.PATCH("/api/admin/admins/:id",
		chain(deps.AdminHandler.Update, adminMid, perm(admins.PermManageAdmins)))
	router.DELETE("/api/admin/admins/:id",
		chain(deps.AdminHandler.Delete, adminMid, perm(admins.PermManageAdmins)))
	router.POST("/api/admin/admins/:id/unlock",
		chain(deps.AdminHandler.Unlock, adminMid, perm(admins.PermManageAdmins)))
	router.GET("/api/admin/admins/:id/audit",
		chain(deps.AdminHandler.Audit, adminMid, perm(admins.PermManageAdmins)))
	router.GET("/api/admin/audit",
		chain(deps.AdminHandler.Audit, adminMid, perm(admins.PermManageAdmins)))

	return router
}

// Handler wraps the router with the request-wide middleware.
func Handler(deps *Dependencies) http.Handler {
	var h http.Handler = NewRouter(deps)
	h = middleware.CORS(deps.Config.CORS)(h)
	h = middleware.Logger(deps.Logger)(h)
	h = middleware.Recovery(deps.Logger)(h)
	h = middleware.RequestID(deps.Logger)(h)
	if deps.Config.Server.TrustProxy {
		h = middleware.RealIP(h)
	}
	return h
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
