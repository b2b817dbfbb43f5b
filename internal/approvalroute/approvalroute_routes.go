package approvalroute

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
	routes := r.Group("/approval-routes")
	routes.Use(middleware.AuthMiddleware())
	{
		routes.GET("", handler.List)
		routes.GET("/:id", handler.GetById)
		routes.POST("", middleware.RBACAuthorize(rbacService, "approval_route", "manage"), handler.Create)
		routes.PUT("/:id", middleware.RBACAuthorize(rbacService, "approval_route", "manage"), handler.Update)
		routes.DELETE("/:id", middleware.RBACAuthorize(rbacService, "approval_route", "manage"), handler.Delete)
	}
}
