package user

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches user endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, adminOnly gin.HandlerFunc) {
	users := router.Group("/users")
	{
		users.GET("", adminOnly, handler.List)
		users.POST("", adminOnly, handler.Create)
		users.GET("/:userId", handler.GetByID)
		users.DELETE("/:userId", handler.Delete)
	}
}
