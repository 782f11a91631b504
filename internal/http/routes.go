package http

import (
	"shib_mining/internal/config"
	"shib_mining/internal/http/handlers"
	"shib_mining/internal/http/middleware"
	"shib_mining/internal/mining"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, engine *mining.Engine, cfg *config.Config, version string) {
	h := handlers.NewHandler(db, engine)
	healthHandler := handlers.NewHealthHandler(db, version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))

	// Auth; login/register get the tighter window
	authRL := middleware.RedisRateLimit(cfg.AuthRateLimit, cfg.AuthRateWindow)
	v1.POST("/auth/login", authRL, h.Login)
	v1.POST("/auth/register", authRL, h.Register)
	v1.POST("/auth/logout", middleware.JWT(), h.Logout)

	// User profile
	v1.GET("/me", middleware.JWT(), h.Me)

	// Dashboard & mining session
	v1.GET("/dashboard", middleware.JWT(), h.Dashboard)
	v1.POST("/mining/toggle", middleware.JWT(), h.ToggleMining)
	v1.GET("/mining/state", middleware.JWT(), h.MiningState)

	// Plan catalog & tier change
	v1.GET("/plans", h.Plans)
	v1.POST("/plan", middleware.JWT(), h.ChangePlan)

	// Withdrawals (per-user limiter on submission, not per IP)
	withdrawRL := middleware.UserRateLimit("withdraw", cfg.WithdrawRateLimit, cfg.WithdrawRateWindow)
	wd := v1.Group("/withdrawals")
	wd.Use(middleware.JWT())
	{
		wd.GET("", h.MyWithdrawals)
		wd.GET("/limits", h.WithdrawalLimits)
		wd.POST("", withdrawRL, h.RequestWithdrawal)
	}

	// Live state stream for the dashboard
	r.GET("/ws", h.WS)

	// Frontend pages behind the routing guard
	r.StaticFS("/assets", gin.Dir("./web/assets", false))
	r.GET("/", middleware.PageGuard(), func(c *gin.Context) {
		c.File("./web/index.html")
	})
	r.GET("/dashboard", middleware.PageGuard(), func(c *gin.Context) {
		c.File("./web/dashboard.html")
	})
}
