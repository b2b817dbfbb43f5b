package user

import (
	"github.com/bp848/prod-bperp/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.GET("", handler.ListActive)
		users.GET("/:id", handler.GetById)
	}
}
