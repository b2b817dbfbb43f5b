package application

import (
	"github.com/bp848/prod-bperp/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rdb *redis.Client,
) {
	apps := r.Group("/applications")
	apps.Use(middleware.AuthMiddleware())
	apps.Use(middleware.ExtractUserID())
	apps.Use(middleware.RateLimitByUser(rate.Limit(10), 20))
	{
		apps.GET("", handler.List)
		apps.GET("/:id", handler.GetById)

		apps.POST("", middleware.Idempotency(rdb), handler.Submit)
		apps.POST("/drafts", middleware.Idempotency(rdb), handler.SaveDraft)
		apps.PUT("/drafts/:id", handler.UpdateDraft)
		apps.POST("/:id/submit", middleware.Idempotency(rdb), handler.SubmitDraft)

		apps.POST("/:id/approve", handler.Approve)
		apps.POST("/:id/reject", handler.Reject)
	}
}
