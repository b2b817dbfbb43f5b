package applicationcode

import (
	"github.com/bp848/prod-bperp/internal/middleware"
	"github.com/bp848/prod-bperp/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	codes := r.Group("/application-codes")
	codes.Use(middleware.AuthMiddleware())
	{
		codes.GET("", handler.List)
		codes.POST("", middleware.RBACAuthorize(rbacService, "application_code", "manage"), handler.Create)
		codes.DELETE("/:id", middleware.RBACAuthorize(rbacService, "application_code", "manage"), handler.Deactivate)
	}
}
