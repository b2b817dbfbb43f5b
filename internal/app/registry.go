package app

import (
	"database/sql"

	"github.com/bp848/prod-bperp/internal/application"
	"github.com/bp848/prod-bperp/internal/applicationcode"
	"github.com/bp848/prod-bperp/internal/approvalroute"
	"github.com/bp848/prod-bperp/internal/messaging/kafka"
	"github.com/bp848/prod-bperp/internal/middleware"
	"github.com/bp848/prod-bperp/internal/rbac"
	"github.com/bp848/prod-bperp/internal/rbac/infra"
	"github.com/bp848/prod-bperp/internal/shared/counter"
	"github.com/bp848/prod-bperp/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	userRepo := user.NewRepository(gormDB)
	codeRepo := applicationcode.NewRepository(gormDB)
	routeRepo := approvalroute.NewRepository(gormDB)
	applicationRepo := application.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(infra.DefaultModelPath())
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Services ---
	userService := user.NewService(userRepo)
	codeService := applicationcode.NewService(codeRepo, rdb)
	routeService := approvalroute.NewService(db, routeRepo)
	applicationService := application.NewService(
		db,
		applicationRepo,
		codeRepo,
		routeRepo,
		counterRepo,
		outboxRepo,
	)

	// --- Handlers ---
	userHandler := user.NewHandler(userService)
	codeHandler := applicationcode.NewHandler(codeService)
	routeHandler := approvalroute.NewHandler(routeService)
	applicationHandler := application.NewHandler(applicationService)

	// --- Global middleware ---
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))
	router.Use(middleware.RateLimitByIP(rate.Limit(50), 100))

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		user.RegisterRoutes(api, userHandler)
		applicationcode.RegisterRoutes(api, codeHandler, rbacService)
		approvalroute.RegisterRoutes(api, routeHandler, rbacService)
		application.RegisterRoutes(api, applicationHandler, rdb)
	}

	return nil
}
