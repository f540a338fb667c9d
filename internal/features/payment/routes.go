package payment

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches payment ledger endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, adminOnly gin.HandlerFunc) {
	payments := router.Group("/payments")
	{
		payments.GET("", adminOnly, handler.List)
	}
}
