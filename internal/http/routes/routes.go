package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/internal/features/auth"
	"github.com/skillforge/marketplace-server-go/internal/features/course"
	"github.com/skillforge/marketplace-server-go/internal/features/enrollment"
	"github.com/skillforge/marketplace-server-go/internal/features/payment"
	"github.com/skillforge/marketplace-server-go/internal/features/stats"
	"github.com/skillforge/marketplace-server-go/internal/features/user"
	"github.com/skillforge/marketplace-server-go/internal/middleware"
	"github.com/skillforge/marketplace-server-go/pkg/config"
	"github.com/skillforge/marketplace-server-go/pkg/health"
	"github.com/skillforge/marketplace-server-go/pkg/types"
)

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, cfg *config.Config, db *gorm.DB, logger *slog.Logger) {
	// Health check endpoints (no /api prefix for Kubernetes probes)
	healthHandler := health.NewHandler(db, logger)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.VersionInfo)

	// Metrics endpoint for Prometheus
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if !cfg.IsProduction() {
		engine.GET("/debug/db-stats", healthHandler.DBStats)
	}

	api := engine.Group("/api")

	authMW := middleware.NewAuthMiddleware(db, cfg.JWTSecret, logger)

	authenticate := authMW.AuthenticateToken()
	adminOnly := authMW.AuthorizeRoles(types.RoleAdmin)
	educatorOnly := authMW.AuthorizeRoles(types.RoleTeacher, types.RoleAdmin)
	studentOnly := authMW.AuthorizeRoles(types.RoleStudent, types.RoleAdmin)

	authHandler := auth.NewHandler(db, logger, cfg)
	auth.RegisterRoutes(api, authHandler, authenticate)

	userHandler := user.NewHandler(db, logger)
	authedUsers := api.Group("")
	authedUsers.Use(authenticate)
	user.RegisterRoutes(authedUsers, userHandler, adminOnly)

	courseHandler := course.NewHandler(db, logger)
	course.RegisterRoutes(api, courseHandler, authenticate, educatorOnly)

	enrollmentHandler := enrollment.NewHandler(db, logger)
	enrollment.RegisterRoutes(api, enrollmentHandler, studentOnly, adminOnly, authenticate)

	paymentHandler := payment.NewHandler(db, logger)
	authedPayments := api.Group("")
	authedPayments.Use(authenticate)
	payment.RegisterRoutes(authedPayments, paymentHandler, adminOnly)

	statsHandler := stats.NewHandler(db, logger)
	authedStats := api.Group("")
	authedStats.Use(authenticate)
	stats.RegisterRoutes(authedStats, statsHandler, adminOnly)
}
